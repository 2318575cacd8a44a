// =============================================================================
// Rent Receipt Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (recibos)
//   ├── generateCmd (recibos generate)
//   ├── validateCmd (recibos validate)
//   ├── historyCmd  (recibos history)
//   └── versionCmd  (recibos version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads a .env file from the working directory, if present
//   2. Loads the YAML configuration (--config, else recibos.yaml, else defaults)
//   3. Sets up logging
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/pkg/logging"
	"github.com/ginjaninja78/rent-receipts/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "recibos.yaml"

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// cfg is the loaded configuration, set before any subcommand runs.
var cfg *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "recibos",
	Short: "Rent receipt generator - one payment receipt per tenant from a monthly ledger",
	Long: `recibos reads the monthly rent ledger of a building (an XLSX workbook or a
CSV export) and issues one payment receipt ("RECIBO DE PAGO") per tenant as a
PDF document.

Key Features:
  - Free-text column headers are matched to rent, water and energy columns
  - Any number of extra charge columns, read as (label, amount) pairs
  - Exact decimal arithmetic with two-digit rounding
  - A SQLite ledger of every receipt issued
  - An XLSX summary and an error log per run

Example Usage:
  recibos generate --input enero.xlsx --month Enero --year 2024
  recibos validate --input enero.xlsx
  recibos history --year 2024`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the main configuration file (default is recibos.yaml if present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initialize loads the environment and the configuration, then sets up
// logging.
func initialize(cmd *cobra.Command) error {
	// A missing .env file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	loaded, path, err := loadConfig(cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	cfg = loaded

	logging.SetupWithLevel(logging.Level(verbose, cfg.LogLevel))
	if path != "" {
		slog.Debug("configuration loaded", "file", path)
	}

	return nil
}

// loadConfig reads --config, or recibos.yaml when it exists, or falls back
// to the defaults. It returns the file actually read.
func loadConfig(explicit bool) (*config.MainConfig, string, error) {
	path := cfgFile
	if !explicit {
		if !utils.FileExists(defaultConfigFile) {
			return config.Default(), "", nil
		}
		path = defaultConfigFile
	}

	loaded, err := config.LoadMainConfig(path)
	if err != nil {
		return nil, "", err
	}
	return loaded, path, nil
}
