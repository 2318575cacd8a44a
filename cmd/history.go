// =============================================================================
// Rent Receipt Generator - History Command
// =============================================================================
//
// This file defines the 'history' command, which lists the receipts recorded
// in the ledger.
//
// COMMAND USAGE:
//   recibos history [--year 2024] [--month Enero] [--apartment 101]
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/rent-receipts/internal/ledger"
)

var historyFilter ledger.Filter

// historyCmd represents the 'history' command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the receipts recorded in the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LedgerPath == "" {
			return errors.New("no ledger configured (set ledger_path)")
		}

		store, err := ledger.New(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer store.Close()

		receipts, err := store.ListReceipts(cmd.Context(), historyFilter)
		if err != nil {
			return err
		}
		printReceipts(cmd.OutOrStdout(), receipts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyFilter.Year, "year", 0, "Only receipts of this year")
	historyCmd.Flags().StringVar(&historyFilter.Month, "month", "", "Only receipts of this month")
	historyCmd.Flags().StringVar(&historyFilter.Apartment, "apartment", "", "Only receipts of this apartment")
}

func printReceipts(out io.Writer, receipts []*ledger.Receipt) {
	if len(receipts) == 0 {
		fmt.Fprintln(out, "No receipts found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tBUILDING\tDEPA\tTENANT\tTOTAL\tISSUED\tFILE")
	for _, r := range receipts {
		fmt.Fprintf(w, "%s %d\t%s\t%s\t%s %s\t%s\t%s\t%s\n",
			r.Month, r.Year, r.Building, r.Apartment, r.FirstName, r.LastName,
			r.Total.StringFixed(2), r.IssuedAt.Format("02/01/2006"), r.FileName)
	}
	w.Flush()
}
