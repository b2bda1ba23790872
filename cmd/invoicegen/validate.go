package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"invoicegen/internal/service"
)

func newValidateCmd(global *globalOptions) *cobra.Command {
	var input string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every row of a CSV or XLSX file without rendering",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			svc, zl, err := global.newService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()

			report, err := svc.ValidateBatch(cmd.Context(), service.BatchInput{FileName: filepath.Base(input), Reader: f})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printRowErrors(w, report.Errors)
				fmt.Fprintf(w, "%d rows: %d valid, %d invalid\n", report.Total, report.Valid, report.Invalid)
			}
			if report.Invalid > 0 {
				return fmt.Errorf("%d of %d rows are invalid", report.Invalid, report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input rows (.csv or .xlsx)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
