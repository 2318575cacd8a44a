// =============================================================================
// Rent Receipt Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, which issues the receipts of one
// billing period.
//
// COMMAND USAGE:
//   recibos generate [flags]
//
// FLAGS:
//   --input, --output, --building, --year, --month : run parameters
//   --water-start, --water-end                     : water service period
//   --energy-start, --energy-end                   : energy service period
//   --sheet                                        : workbook sheet to read
//   --on-row-error                                 : abort (default) or skip
//   --dry-run                                      : compose without writing
//
// Any flag left out is taken from the run section of the configuration.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/rent-receipts/internal/converter"
	"github.com/ginjaninja78/rent-receipts/internal/ledger"
)

// dryRun composes every receipt without writing any file.
var dryRun bool

var generateFlags runFlags

// generateCmd represents the 'generate' command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Issue one receipt per tenant for a billing period",
	Long: `The generate command reads the ledger table, checks every row and writes one
PDF receipt per tenant into the output directory.

With --on-row-error=abort (the default) a single invalid row stops the run
before any receipt is written. With --on-row-error=skip invalid rows are left
out and listed in an error log next to the receipts.

Every run also writes an XLSX summary of the receipts and, when a ledger is
configured, records each receipt in it.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := generateFlags.apply(cmd.Flags(), cfg); err != nil {
			return err
		}
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateFlags.register(generateCmd.Flags())
	generateCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Compose the receipts without writing any file",
	)
}

// runGenerate executes the run and prints a summary.
func runGenerate(cmd *cobra.Command) error {
	params, err := cfg.RunParameters()
	if err != nil {
		return fmt.Errorf("%w (use --input or run.input)", err)
	}

	opts := []converter.Option{converter.DryRun(dryRun)}
	if cfg.LedgerPath != "" && !dryRun {
		store, err := ledger.New(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, converter.WithLedger(store))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := converter.New(cfg, opts...).Run(ctx, params)

	out := cmd.OutOrStdout()
	if result != nil && result.Stats.RowsRead > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "================================================================================")
		fmt.Fprintln(out, "RUN SUMMARY")
		fmt.Fprintln(out, "================================================================================")
		for _, inv := range result.Invoices {
			fmt.Fprintf(out, "  ✓ depa %-6s %-30s S/. %10s  %s\n",
				inv.Entry.Apartment, inv.Entry.LastName, inv.FormattedTotal(), inv.FileName)
		}
		for _, f := range result.Failures {
			fmt.Fprintf(out, "  ✗ row %-5d depa %-6s %v\n", f.RowNumber, f.Apartment, f.Err)
		}
		fmt.Fprintln(out, "--------------------------------------------------------------------------------")
		fmt.Fprintf(out, "Rows read:       %d\n", result.Stats.RowsRead)
		if dryRun {
			fmt.Fprintf(out, "Receipts:        %d (dry run, nothing written)\n", result.Stats.Issued)
		} else {
			fmt.Fprintf(out, "Receipts:        %d\n", len(result.Files))
		}
		fmt.Fprintf(out, "Skipped:         %d\n", result.Stats.Skipped)
		if result.SummaryPath != "" {
			fmt.Fprintf(out, "Summary:         %s\n", filepath.Base(result.SummaryPath))
		}
		if result.ErrorLogPath != "" {
			fmt.Fprintf(out, "Error log:       %s\n", filepath.Base(result.ErrorLogPath))
		}
		fmt.Fprintf(out, "Time elapsed:    %s\n", result.Stats.ProcessingTime)
	}

	return err
}
