package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"invoicegen/internal/domain"
	"invoicegen/internal/service"
)

type batchOptions struct {
	input       string
	output      string
	publish     bool
	notifyEmail string
	errorReport bool
}

func newBatchCmd(global *globalOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render every row of a CSV or XLSX file into a zip archive",
		Long: `batch renders one invoice per input row. Rows that fail are listed on
stderr and skipped. The command fails only when no row could be rendered
or the input file itself is unusable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input rows (.csv or .xlsx)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "invoices.zip", "Archive to write")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Upload the archive to S3 and print a download link")
	cmd.Flags().StringVar(&opts.notifyEmail, "notify-email", "", "Mail the download link to this address (with --publish)")
	cmd.Flags().BoolVar(&opts.errorReport, "error-report", true, "Add errors.csv to the archive when rows fail")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runBatch(cmd *cobra.Command, global *globalOptions, opts *batchOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	cfg.Batch.IncludeErrorReport = opts.errorReport
	if opts.publish {
		cfg.Publish.Enabled = true
	}

	ctx := cmd.Context()
	svc, zl, err := global.newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	out, err := svc.GenerateBatch(ctx, service.BatchInput{
		FileName:    filepath.Base(opts.input),
		Reader:      f,
		Publish:     opts.publish,
		NotifyEmail: opts.notifyEmail,
	})
	var nd *service.NoDocumentsError
	if errors.As(err, &nd) {
		printRowErrors(cmd.ErrOrStderr(), nd.Summary.Errors)
		return err
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.output, out.Archive, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", opts.output, err)
	}

	printRowErrors(cmd.ErrOrStderr(), out.Summary.Errors)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "batch %s: %d of %d invoices written to %s\n",
		out.Summary.BatchID, out.Summary.Succeeded, out.Summary.Total, opts.output)
	if out.URL != "" {
		fmt.Fprintf(w, "download: %s\n", out.URL)
	}
	return nil
}

func printRowErrors(w io.Writer, errs []domain.RowError) {
	for _, e := range errs {
		no := e.InvoiceNo
		if no == "" {
			no = "-"
		}
		fmt.Fprintf(w, "row %d (%s): %s: %s\n", e.Row, no, e.Kind, e.Detail)
	}
}
