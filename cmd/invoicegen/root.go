package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"invoicegen/internal/app"
	"invoicegen/internal/config"
	"invoicegen/internal/logger"
	"invoicegen/internal/service"
)

// globalOptions are flags shared by every subcommand. Flags override the
// INVOICEGEN_ environment configuration.
type globalOptions struct {
	assetsDir   string
	layout      string
	concurrency int
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "invoicegen",
		Short: "Render invoice PDFs from spreadsheet rows",
		Long: `invoicegen turns CSV or XLSX rows into invoice PDFs packaged in a zip
archive. Rows that fail validation or rendering are reported and skipped.

Example Usage:
  invoicegen batch --input rows.csv --output invoices.zip
  invoicegen batch --input rows.xlsx --output out.zip --assets-dir ./fonts --concurrency 4
  invoicegen validate --input rows.csv`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.assetsDir, "assets-dir", "", "Directory holding fonts and logo (overrides INVOICEGEN_ASSETS_DIR)")
	root.PersistentFlags().StringVar(&opts.layout, "layout", "", "YAML layout profile (overrides INVOICEGEN_LAYOUT_PROFILE)")
	root.PersistentFlags().IntVar(&opts.concurrency, "concurrency", 0, "Rows rendered in parallel (overrides INVOICEGEN_BATCH_CONCURRENCY)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newBatchCmd(opts), newValidateCmd(opts), newVersionCmd())
	return root
}

// loadConfig reads the environment configuration and applies flag overrides.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.assetsDir != "" {
		cfg.Assets.Source = "dir"
		cfg.Assets.Dir = o.assetsDir
	}
	if o.layout != "" {
		cfg.Layout.Profile = o.layout
	}
	if o.concurrency > 0 {
		cfg.Batch.Concurrency = o.concurrency
	}
	// The command line has no upload limit.
	cfg.Batch.MaxUploadMB = 0
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newService builds the invoice service the subcommands run against. Logs
// go to stderr so stdout stays machine-readable.
func (o *globalOptions) newService(ctx context.Context, cfg *config.Config) (service.InvoiceService, *zap.Logger, error) {
	zl, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: logger.DefaultConfig().TimeFormat,
	})
	if err != nil {
		return nil, nil, err
	}

	storage, err := app.Storage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	provider, err := app.Assets(cfg, storage)
	if err != nil {
		return nil, nil, err
	}
	sender, err := app.EmailSender(ctx, cfg, zl)
	if err != nil {
		return nil, nil, err
	}
	processor, err := app.Processor(cfg, provider, zl)
	if err != nil {
		return nil, nil, err
	}
	return service.NewInvoiceService(processor, storage, sender, service.OptionsFromConfig(cfg), zl), zl, nil
}
