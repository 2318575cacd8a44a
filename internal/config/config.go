// =============================================================================
// Rent Receipt Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration and
// turning its "run" section (plus any command-line overrides) into the
// immutable RunParameters value handed to the engine.
//
// CONFIGURATION FILE (recibos.yaml):
//   - Directories, logging, ledger and metrics settings
//   - Input table settings (sheet name, delimiter, encoding)
//   - Building table (identifier -> street) and the default building
//   - Issuer block printed under the charges table
//   - The "run" section: building, period, service date ranges, input file
//
// ARCHITECTURE:
//   The configuration system is designed to be:
//   - Optional: every setting has a default, a missing default file is fine
//   - Validated: invalid values are rejected on load
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/rent-receipts/internal/types"
)

// =============================================================================
// ROW ERROR POLICIES
// =============================================================================

const (
	// PolicyAbort stops the run when any row fails validation. No document
	// is written.
	PolicyAbort = "abort"

	// PolicySkip logs the failing rows, leaves them out and continues.
	PolicySkip = "skip"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the recibos.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// OutputDir is the directory where the receipts are written when the run
	// section does not name one.
	// Default: "./recibos"
	OutputDir string `yaml:"output_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "" (use the LOG_LEVEL environment variable, else info)
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// RECORD KEEPING
	// =========================================================================

	// LedgerPath is the SQLite database recording every issued receipt.
	// Empty disables the ledger.
	LedgerPath string `yaml:"ledger_path"`

	// ArchiveDir receives a dated copy of every input table whose receipts
	// were written. Empty disables archiving.
	ArchiveDir string `yaml:"archive_dir"`

	// MetricsTextfile is where run metrics are written in the Prometheus text
	// format (node_exporter textfile collector). Empty disables the export.
	MetricsTextfile string `yaml:"metrics_textfile"`

	// SummaryWorkbook is the file name of the XLSX run summary written into
	// the output directory. Empty disables the summary.
	// Default: "resumen.xlsx"
	SummaryWorkbook string `yaml:"summary_workbook"`

	// ErrorLog enables the error log written next to the receipts when rows
	// are skipped.
	ErrorLog *bool `yaml:"error_log"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// RowErrorPolicy selects what happens when a row fails validation.
	// Valid values: "abort", "skip"
	// Default: "abort"
	RowErrorPolicy string `yaml:"row_error_policy"`

	// LabelWrapWidth is the maximum line length of an extra charge label.
	// Default: 40
	LabelWrapWidth int `yaml:"label_wrap_width"`

	// Input contains settings for reading the ledger table.
	Input InputSettings `yaml:"input"`

	// =========================================================================
	// DOCUMENT CONTENT
	// =========================================================================

	// Buildings is the ordered building table.
	Buildings []Building `yaml:"buildings"`

	// DefaultBuilding is used for any unrecognized building identifier.
	// Default: "QUIPAYPAMPA"
	DefaultBuilding string `yaml:"default_building"`

	// AddressLines are printed under the building street on every receipt.
	AddressLines []string `yaml:"address_lines"`

	// Issuer is the signature block.
	Issuer Issuer `yaml:"issuer"`

	// =========================================================================
	// RUN
	// =========================================================================

	// Run holds the parameters of the billing run. Any field can be
	// overridden from the command line.
	Run RunConfig `yaml:"run"`
}

// InputSettings contains settings for reading the input table.
type InputSettings struct {
	// Sheet is the worksheet read from XLSX workbooks.
	// Default: "CSV"
	Sheet string `yaml:"sheet"`

	// MaxColumns limits how many columns (from A) are read from a workbook.
	// Default: 16 (A:P)
	MaxColumns int `yaml:"max_columns"`

	// CSVSettings apply to delimited text input.
	CSVSettings `yaml:",inline"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), ";" (semicolon), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the CSV file.
	// Supported values: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// Building is one entry of the building table.
type Building struct {
	// ID is the identifier used in the run parameters, e.g. "COLQUEPATA".
	ID string `yaml:"id"`

	// Street is the building-specific address line.
	Street string `yaml:"street"`
}

// Issuer is the signature block printed at the bottom of every receipt.
type Issuer struct {
	// Name is the signer; may span two lines with "\n".
	Name string `yaml:"name"`

	// Role is printed under the name.
	Role string `yaml:"role"`

	// SignatureImage is an optional PNG drawn above the name.
	SignatureImage string `yaml:"signature_image"`
}

// RunConfig is the YAML form of the run parameters.
type RunConfig struct {
	Building  string         `yaml:"building"`
	Year      int            `yaml:"year"`
	Month     string         `yaml:"month"`
	Water     DateRangeValue `yaml:"water"`
	Energy    DateRangeValue `yaml:"energy"`
	Input     string         `yaml:"input"`
	OutputDir string         `yaml:"output_dir"`
}

// DateRangeValue is the YAML form of a service period.
type DateRangeValue struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseMainConfig(data)
}

// ParseMainConfig parses, defaults and validates a YAML document.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply default values.
	applyMainConfigDefaults(&config)

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./recibos"
	}
	if config.SummaryWorkbook == "" {
		config.SummaryWorkbook = "resumen.xlsx"
	}
	if config.ErrorLog == nil {
		enabled := true
		config.ErrorLog = &enabled
	}
	if config.RowErrorPolicy == "" {
		config.RowErrorPolicy = PolicyAbort
	}
	if config.LabelWrapWidth == 0 {
		config.LabelWrapWidth = 40
	}

	// Input defaults.
	if config.Input.Sheet == "" {
		config.Input.Sheet = "CSV"
	}
	if config.Input.MaxColumns == 0 {
		config.Input.MaxColumns = 16
	}
	if config.Input.Delimiter == "" {
		config.Input.Delimiter = ","
	}
	if config.Input.Encoding == "" {
		config.Input.Encoding = "UTF-8"
	}

	// Document content defaults.
	if len(config.Buildings) == 0 {
		config.Buildings = []Building{
			{ID: "COLQUEPATA", Street: "Jr. Colquepata 215"},
			{ID: "QUIPAYPAMPA", Street: "Jr. Quipaypampa 227"},
		}
	}
	if config.DefaultBuilding == "" {
		config.DefaultBuilding = config.Buildings[len(config.Buildings)-1].ID
	}
	if config.AddressLines == nil {
		config.AddressLines = []string{"Urb. Tahuantinsuyo", "Independencia", "Lima, Perú"}
	}
	if config.Issuer.Role == "" {
		config.Issuer.Role = "Propietario y Administrador"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch config.RowErrorPolicy {
	case PolicyAbort, PolicySkip:
	default:
		return fmt.Errorf("row_error_policy must be %q or %q, got %q",
			PolicyAbort, PolicySkip, config.RowErrorPolicy)
	}

	if config.LabelWrapWidth < 1 {
		return fmt.Errorf("label_wrap_width must be positive, got %d", config.LabelWrapWidth)
	}
	if config.Input.MaxColumns < 0 {
		return fmt.Errorf("input.max_columns must not be negative, got %d", config.Input.MaxColumns)
	}

	seen := make(map[string]bool)
	for i, b := range config.Buildings {
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return fmt.Errorf("buildings[%d]: id is required", i)
		}
		if seen[id] {
			return fmt.Errorf("buildings[%d]: duplicate id %q", i, id)
		}
		seen[id] = true
	}
	if !seen[config.DefaultBuilding] {
		return fmt.Errorf("default_building %q is not in the building table", config.DefaultBuilding)
	}

	return nil
}

// =============================================================================
// RUN PARAMETERS
// =============================================================================

// ErrNoInput is returned by RunParameters when no input table is named.
var ErrNoInput = errors.New("no input table given")

// RunParameters builds the engine's immutable run parameters from the run
// section. The output directory falls back to MainConfig.OutputDir.
func (c *MainConfig) RunParameters() (types.RunParameters, error) {
	params := types.RunParameters{
		Building: strings.TrimSpace(c.Run.Building),
		Year:     c.Run.Year,
		Month:    strings.TrimSpace(c.Run.Month),
		Water: types.DateRange{
			Start: strings.TrimSpace(c.Run.Water.Start),
			End:   strings.TrimSpace(c.Run.Water.End),
		},
		Energy: types.DateRange{
			Start: strings.TrimSpace(c.Run.Energy.Start),
			End:   strings.TrimSpace(c.Run.Energy.End),
		},
		InputPath: strings.TrimSpace(c.Run.Input),
		OutputDir: strings.TrimSpace(c.Run.OutputDir),
	}

	if params.OutputDir == "" {
		params.OutputDir = c.OutputDir
	}
	if params.InputPath == "" {
		return params, ErrNoInput
	}

	return params, nil
}

// Street returns the street of a building and whether the identifier was
// found. Unknown identifiers resolve to the default building.
func (c *MainConfig) Street(building string) (string, bool) {
	var fallback string
	for _, b := range c.Buildings {
		if strings.EqualFold(b.ID, building) {
			return b.Street, true
		}
		if b.ID == c.DefaultBuilding {
			fallback = b.Street
		}
	}
	return fallback, false
}

// ErrorLogEnabled reports whether the skipped-rows log should be written.
func (c *MainConfig) ErrorLogEnabled() bool {
	return c.ErrorLog == nil || *c.ErrorLog
}
