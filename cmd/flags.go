package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ginjaninja78/rent-receipts/internal/config"
)

// runFlags are the run parameters that can be given on the command line.
// A flag only overrides the configuration when it was set.
type runFlags struct {
	input       string
	output      string
	building    string
	year        int
	month       string
	waterStart  string
	waterEnd    string
	energyStart string
	energyEnd   string
	sheet       string
	onRowError  string
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.input, "input", "i", "", "Ledger table to read (.xlsx, .xlsm, .csv, .tsv)")
	fs.StringVarP(&f.output, "output", "o", "", "Directory for the receipts")
	fs.StringVarP(&f.building, "building", "b", "", "Building identifier, e.g. COLQUEPATA")
	fs.IntVar(&f.year, "year", 0, "Billing year")
	fs.StringVar(&f.month, "month", "", "Billing month name, e.g. Enero")
	fs.StringVar(&f.waterStart, "water-start", "", "First day of the water period")
	fs.StringVar(&f.waterEnd, "water-end", "", "Last day of the water period")
	fs.StringVar(&f.energyStart, "energy-start", "", "First day of the energy period")
	fs.StringVar(&f.energyEnd, "energy-end", "", "Last day of the energy period")
	fs.StringVar(&f.sheet, "sheet", "", "Worksheet to read from a workbook (default CSV)")
	fs.StringVar(&f.onRowError, "on-row-error", "", "What to do with invalid rows: abort or skip")
}

// apply copies the flags that were set onto the configuration.
func (f *runFlags) apply(fs *pflag.FlagSet, c *config.MainConfig) error {
	set := func(name string, dst *string, value string) {
		if fs.Changed(name) {
			*dst = value
		}
	}

	set("input", &c.Run.Input, f.input)
	set("output", &c.Run.OutputDir, f.output)
	set("building", &c.Run.Building, f.building)
	set("month", &c.Run.Month, f.month)
	set("water-start", &c.Run.Water.Start, f.waterStart)
	set("water-end", &c.Run.Water.End, f.waterEnd)
	set("energy-start", &c.Run.Energy.Start, f.energyStart)
	set("energy-end", &c.Run.Energy.End, f.energyEnd)
	set("sheet", &c.Input.Sheet, f.sheet)
	if fs.Changed("year") {
		c.Run.Year = f.year
	}

	if fs.Changed("on-row-error") {
		switch f.onRowError {
		case config.PolicyAbort, config.PolicySkip:
			c.RowErrorPolicy = f.onRowError
		default:
			return fmt.Errorf("invalid --on-row-error %q: must be %q or %q", f.onRowError, config.PolicyAbort, config.PolicySkip)
		}
	}

	return nil
}
