// =============================================================================
// Rent Receipt Generator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks a ledger table
// without writing anything.
//
// COMMAND USAGE:
//   recibos validate --input enero.xlsx
//
// OUTPUT:
//   1. The column each canonical field was matched to
//   2. The extra charge column pairs
//   3. Every row that fails validation
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/internal/converter"
	"github.com/ginjaninja78/rent-receipts/internal/schema"
	"github.com/ginjaninja78/rent-receipts/internal/validation"
)

var validateFlags runFlags

// errInvalidRows makes the command exit non-zero when rows fail.
var errInvalidRows = errors.New("table has invalid rows")

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a ledger table without issuing receipts",
	Long: `The validate command loads the ledger table, matches its columns, pairs the
extra charge columns and converts every row, then reports what it found.
Nothing is written.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFlags.apply(cmd.Flags(), cfg); err != nil {
			return err
		}
		return runValidate(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateFlags.register(validateCmd.Flags())
}

// runValidate prints the column mapping, the extra pairs and the row errors
// of the configured input table.
func runValidate(out io.Writer, c *config.MainConfig) error {
	if c.Run.Input == "" {
		return fmt.Errorf("%w (use --input or run.input)", config.ErrNoInput)
	}

	plan, err := converter.New(c).Load(c.Run.Input)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Table: %s (%d rows)\n\n", c.Run.Input, len(plan.Table.Rows))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tCOLUMN")
	for _, f := range schema.CanonicalFields {
		col, ok := plan.Schema.Column(f)
		if !ok {
			fmt.Fprintf(w, "%s\t(missing)\n", f)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", f, plan.Schema.Headers[col])
	}
	w.Flush()

	fmt.Fprintln(out)
	if len(plan.Schema.Extras) == 0 {
		fmt.Fprintln(out, "No extra charge columns.")
	} else {
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EXTRA\tLABEL COLUMN\tAMOUNT COLUMN")
		for _, p := range plan.Schema.Extras {
			fmt.Fprintf(w, "%d\t%s\t%s\n", p.Index, p.LabelHeader, p.AmountHeader)
		}
		w.Flush()
	}

	fmt.Fprintln(out)
	if len(plan.Failures) == 0 {
		fmt.Fprintf(out, "All %d rows are valid.\n", len(plan.Entries))
		return nil
	}

	var problems []*validation.ValidationError
	for _, f := range plan.Failures {
		problems = append(problems, validation.Unpack(f.Err)...)
	}
	fmt.Fprintf(out, "%d of %d rows are invalid:\n", len(plan.Failures), len(plan.Table.Rows))
	fmt.Fprint(out, indent(validation.FormatErrors(problems)))

	return fmt.Errorf("%w: %d", errInvalidRows, len(plan.Failures))
}

func indent(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
