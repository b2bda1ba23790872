package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "invoicegen/docs"
	"invoicegen/internal/app"
	"invoicegen/internal/config"
	"invoicegen/internal/handler"
	"invoicegen/internal/logger"
	"invoicegen/internal/router"
	"invoicegen/internal/service"
)

//	@title			invoicegen API
//	@version		1.0
//	@description	Renders invoices as PDF, one at a time or in batches from CSV and XLSX uploads.

//	@BasePath	/api/v1

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultConfig().TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Initialize storage and assets
	storage, err := app.Storage(ctx, cfg)
	if err != nil {
		return err
	}
	provider, err := app.Assets(cfg, storage)
	if err != nil {
		return fmt.Errorf("failed to initialize assets: %w", err)
	}
	sender, err := app.EmailSender(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}

	// Initialize services
	processor, err := app.Processor(cfg, provider, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize processor: %w", err)
	}
	invoiceSvc := service.NewInvoiceService(processor, storage, sender, service.OptionsFromConfig(cfg), zl.Named("service"))

	// Initialize handlers
	invoiceH := handler.NewInvoiceHandler(invoiceSvc)
	healthH := handler.NewHealthHandler(provider)

	r := router.Setup(cfg, zl, invoiceH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment),
			zap.String("assets", cfg.Assets.Source),
			zap.Bool("publish", cfg.Publish.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	zl.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
