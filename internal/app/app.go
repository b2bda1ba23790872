// Package app wires configuration into the components shared by the
// HTTP server and the command line tool.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"invoicegen/internal/assets"
	"invoicegen/internal/batch"
	"invoicegen/internal/config"
	"invoicegen/internal/email/noop"
	"invoicegen/internal/email/ses"
	"invoicegen/internal/layout"
	"invoicegen/internal/logger"
	"invoicegen/internal/parser"
	"invoicegen/internal/port"
	"invoicegen/internal/render"
	s3storage "invoicegen/internal/storage/s3"
)

// NeedsStorage reports whether cfg uses object storage at all.
func NeedsStorage(cfg *config.Config) bool {
	return cfg.Assets.Source == "s3" || cfg.Publish.Enabled
}

// Storage connects to S3 when cfg needs it and returns nil otherwise.
func Storage(ctx context.Context, cfg *config.Config) (port.ObjectStorage, error) {
	if !NeedsStorage(cfg) {
		return nil, nil
	}
	client, err := s3storage.NewClient(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("initializing S3 client: %w", err)
	}
	return client, nil
}

// Assets builds the font and logo provider selected by cfg.Assets.Source.
func Assets(cfg *config.Config, storage port.ObjectStorage) (assets.Provider, error) {
	switch cfg.Assets.Source {
	case "dir":
		return assets.NewCached(assets.NewDir(cfg.Assets.Dir, cfg.Assets.Files())), nil
	case "s3":
		if storage == nil {
			return nil, fmt.Errorf("assets.source is s3 but no object storage is configured")
		}
		return assets.NewCached(assets.NewS3(storage, cfg.S3.Bucket, cfg.Assets.S3Prefix, cfg.Assets.Files())), nil
	default:
		return nil, fmt.Errorf("unknown assets source %q", cfg.Assets.Source)
	}
}

// PageConfig returns the default page layout, overlaid with the YAML
// profile named in cfg when there is one.
func PageConfig(cfg *config.Config) (layout.PageConfig, error) {
	base := layout.DefaultPageConfig()
	if cfg.Layout.Profile == "" {
		return base, nil
	}
	f, err := os.Open(cfg.Layout.Profile)
	if err != nil {
		return base, fmt.Errorf("opening layout profile: %w", err)
	}
	defer f.Close()

	pc, err := layout.LoadProfile(f, base)
	if err != nil {
		return base, fmt.Errorf("layout profile %s: %w", cfg.Layout.Profile, err)
	}
	return pc, nil
}

// Processor builds the invoice pipeline from cfg.
func Processor(cfg *config.Config, provider assets.Provider, log *zap.Logger) (*batch.Processor, error) {
	log = logger.OrNop(log)
	pc, err := PageConfig(cfg)
	if err != nil {
		return nil, err
	}
	p := parser.New(parser.Options{
		DateLayout:      cfg.Invoice.DateFormat,
		DefaultCurrency: cfg.Invoice.DefaultCurrency,
		TaxRates:        cfg.Invoice.TaxRates,
	})
	return batch.New(p, render.New(log.Named("render")), provider, batch.Options{
		Layout:             pc,
		Concurrency:        cfg.Batch.Concurrency,
		IncludeErrorReport: cfg.Batch.IncludeErrorReport,
	}, log.Named("batch"))
}

// EmailSender returns the sender named by cfg.Email.Provider.
func EmailSender(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.EmailSender, error) {
	log = logger.OrNop(log)
	switch cfg.Email.Provider {
	case "ses":
		return ses.NewSESSender(ctx, cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
	case "", "noop":
		return noop.NewNoopSender(log.Named("email")), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}
