// =============================================================================
// Rent Receipt Generator - Converter Module
// =============================================================================
//
// This module contains the run pipeline. It takes one ledger table and one
// set of run parameters and produces one receipt per tenant.
//
// CONVERSION PIPELINE:
//   1. Check the run parameters
//   2. Load the input table (XLSX or delimited text)
//   3. Classify the columns and pair the extra charge columns
//   4. Transform every row into an Entry
//   5. Apply the row error policy
//   6. Compose one invoice per entry
//   7. Render each invoice and record it in the ledger
//   8. Write the run summary workbook and the error log
//   9. Archive a copy of the input table
//
// CONCURRENCY:
//   A run is single-threaded. The schema and the run parameters are computed
//   once and only read while rows are processed.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/internal/csvparser"
	"github.com/ginjaninja78/rent-receipts/internal/invoice"
	"github.com/ginjaninja78/rent-receipts/internal/ledger"
	"github.com/ginjaninja78/rent-receipts/internal/metrics"
	"github.com/ginjaninja78/rent-receipts/internal/pdfwriter"
	"github.com/ginjaninja78/rent-receipts/internal/report"
	"github.com/ginjaninja78/rent-receipts/internal/schema"
	"github.com/ginjaninja78/rent-receipts/internal/types"
	"github.com/ginjaninja78/rent-receipts/internal/validation"
	"github.com/ginjaninja78/rent-receipts/internal/xlsxparser"
	"github.com/ginjaninja78/rent-receipts/pkg/utils"
)

// ErrInputNotFound is returned when the input table does not exist.
var ErrInputNotFound = errors.New("input table not found")

// ErrInvalidParameters is returned when the run parameters fail validation.
var ErrInvalidParameters = errors.New("invalid run parameters")

// ErrUnsupportedInput is returned for an input file of an unknown type.
var ErrUnsupportedInput = errors.New("unsupported input file type")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// RunID identifies the run in logs and in the ledger.
	RunID string

	// Invoices are the composed receipts, in table order.
	Invoices []*types.Invoice

	// Files are the receipt paths written. Empty on a dry run.
	Files []string

	// Failures are the rows that failed validation.
	Failures []RowFailure

	// SummaryPath is the run summary workbook, if one was written.
	SummaryPath string

	// ErrorLogPath is the error log, if one was written.
	ErrorLogPath string

	// Stats contains run statistics.
	Stats RunStats
}

// RunStats contains statistics about a run.
type RunStats struct {
	// RowsRead is the number of data rows in the input table.
	RowsRead int

	// Issued is the number of receipts composed (and rendered unless the
	// run is a dry run).
	Issued int

	// Skipped is the number of rows left out under the skip policy.
	Skipped int

	// ExtrasIncluded is the number of extra charges printed.
	ExtrasIncluded int

	// ProcessingTime is the wall time of the run.
	ProcessingTime time.Duration
}

// Plan is a loaded and transformed table, ready to be issued.
type Plan struct {
	Table    *types.RawTable
	Schema   *schema.Schema
	Entries  []types.Entry
	Failures []RowFailure

	// Warnings are non-fatal findings about the run parameters.
	Warnings []*validation.ValidationError
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Renderer writes one invoice document to a path.
type Renderer interface {
	Render(inv *types.Invoice, path string) error
}

// Converter runs the receipt pipeline for one configuration.
type Converter struct {
	cfg      *config.MainConfig
	renderer Renderer
	ledger   *ledger.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	dryRun   bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithRenderer replaces the PDF renderer.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) { c.renderer = r }
}

// WithLedger records runs and receipts in store.
func WithLedger(store *ledger.Store) Option {
	return func(c *Converter) { c.ledger = store }
}

// WithMetrics counts into m instead of a private set of metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) { c.logger = logger }
}

// WithClock sets the source of the issue date.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// DryRun composes every invoice but writes no files.
func DryRun(enabled bool) Option {
	return func(c *Converter) { c.dryRun = enabled }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter.
//
// PARAMETERS:
//   - cfg: The main configuration. It must have passed validation.
//   - opts: Optional collaborators.
//
// RETURNS:
//   - A new Converter instance.
func New(cfg *config.MainConfig, opts ...Option) *Converter {
	c := &Converter{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	if c.renderer == nil {
		c.renderer = pdfwriter.NewRenderer(cfg.Issuer, pdfwriter.WithLogger(c.logger))
	}
	return c
}

// Metrics returns the counters the converter updates.
func (c *Converter) Metrics() *metrics.Metrics {
	return c.metrics
}

// =============================================================================
// PREPARATION
// =============================================================================

// Prepare checks the parameters, loads the table and transforms every row.
// It writes nothing.
//
// RETURNS:
//   - The plan, including failed rows.
//   - An error if the parameters are invalid, the input cannot be read or
//     the columns cannot be resolved.
func (c *Converter) Prepare(params types.RunParameters) (*Plan, error) {
	check := validation.ValidateRunParameters(validation.RunCheck{
		Building:  params.Building,
		Year:      params.Year,
		Month:     params.Month,
		InputPath: params.InputPath,
		OutputDir: params.OutputDir,
	}, c.buildingIDs())
	if err := check.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	plan, err := c.Load(params.InputPath)
	if err != nil {
		return nil, err
	}
	plan.Warnings = check.Warnings()
	return plan, nil
}

// Load reads the table at inputPath, resolves its columns and transforms
// every row. It does not look at the run parameters.
func (c *Converter) Load(inputPath string) (*Plan, error) {
	if _, err := os.Stat(inputPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return nil, fmt.Errorf("failed to access input: %w", err)
	}

	table, err := LoadTable(inputPath, c.cfg.Input)
	if err != nil {
		return nil, err
	}

	s, err := schema.Build(table.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve columns of %s: %w", filepath.Base(inputPath), err)
	}

	transformer := NewTransformer(s, TransformOptions{WrapWidth: c.cfg.LabelWrapWidth})
	entries, failures := transformer.TransformTable(table)

	return &Plan{
		Table:    table,
		Schema:   s,
		Entries:  entries,
		Failures: failures,
	}, nil
}

// LoadTable reads the input table, choosing the loader by file extension.
func LoadTable(path string, settings config.InputSettings) (*types.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(path, settings)
	case ".csv", ".tsv", ".txt":
		csvSettings := settings.CSVSettings
		if strings.EqualFold(filepath.Ext(path), ".tsv") && csvSettings.Delimiter == "," {
			csvSettings.Delimiter = "\t"
		}
		return csvparser.Parse(path, csvSettings)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Base(path))
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for one billing period.
//
// PARAMETERS:
//   - ctx: Cancels the run between receipts.
//   - params: The run parameters.
//
// RETURNS:
//   - The result. It is non-nil whenever rows were read, even on error.
//   - An error wrapping ErrInvalidParameters, ErrInputNotFound,
//     schema.ErrOddExtraColumns, schema.ErrDuplicateColumn or
//     validation.ErrRowValidation, or a write failure.
func (c *Converter) Run(ctx context.Context, params types.RunParameters) (result *Result, err error) {
	started := c.now()
	runID := uuid.New().String()
	logger := c.logger.With("run_id", runID)

	result = &Result{RunID: runID}
	defer func() {
		finished := c.now()
		result.Stats.ProcessingTime = finished.Sub(started)
		c.metrics.ObserveRun(started, finished, err == nil)
		if c.cfg.MetricsTextfile != "" {
			if werr := c.metrics.WriteTextfile(c.cfg.MetricsTextfile); werr != nil {
				logger.Warn("failed to export metrics", "file", c.cfg.MetricsTextfile, "error", werr)
			}
		}
	}()

	// =========================================================================
	// STEP 1: LOAD AND TRANSFORM
	// =========================================================================

	logger.Info("processing ledger", "file", params.InputPath, "building", params.Building, "period", fmt.Sprintf("%s %d", params.Month, params.Year))

	plan, err := c.Prepare(params)
	if err != nil {
		return result, err
	}
	for _, w := range plan.Warnings {
		logger.Warn(w.Message, "field", w.Field, "value", w.Value)
	}
	for _, f := range plan.Schema.Missing() {
		logger.Warn("no column matches field", "field", string(f))
	}

	rows := len(plan.Table.Rows)
	result.Stats.RowsRead = rows
	result.Failures = plan.Failures
	c.metrics.RowsRead.Add(float64(rows))
	logger.Debug("table loaded", "rows", rows, "extra_pairs", len(plan.Schema.Extras))

	// =========================================================================
	// STEP 2: APPLY THE ROW ERROR POLICY
	// =========================================================================

	if len(plan.Failures) > 0 {
		for _, f := range plan.Failures {
			logger.Warn("row failed validation", "row", f.RowNumber, "apartment", f.Apartment, "error", f.Err)
		}

		if c.cfg.RowErrorPolicy != config.PolicySkip {
			return result, fmt.Errorf("%w: %d of %d rows failed: %w",
				validation.ErrRowValidation, len(plan.Failures), rows, joinFailures(plan.Failures))
		}

		result.Stats.Skipped = len(plan.Failures)
		c.metrics.RowsSkipped.Add(float64(len(plan.Failures)))
	}

	// =========================================================================
	// STEP 3: COMPOSE INVOICES
	// =========================================================================

	composer := invoice.NewComposer(c.cfg, invoice.WithLogger(logger), invoice.WithClock(c.now))
	for _, entry := range plan.Entries {
		inv := composer.Compose(entry, params)
		result.Invoices = append(result.Invoices, inv)
		result.Stats.ExtrasIncluded += len(entry.Extras)
	}
	result.Stats.Issued = len(result.Invoices)

	if c.dryRun {
		logger.Info("dry run complete", "receipts", len(result.Invoices), "skipped", result.Stats.Skipped)
		return result, nil
	}

	// =========================================================================
	// STEP 4: WRITE RECEIPTS
	// =========================================================================

	fm := utils.NewFileManager(params.OutputDir, c.cfg.ArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return result, err
	}

	run := &ledger.Run{
		ID:        runID,
		StartedAt: started,
		InputFile: params.InputPath,
		Building:  params.Building,
		Year:      params.Year,
		Month:     params.Month,
	}
	if c.ledger != nil {
		if err := c.ledger.RecordRun(ctx, run); err != nil {
			return result, err
		}
	}

	seen := make(map[string]int)
	for _, inv := range result.Invoices {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("run cancelled after %d receipts: %w", len(result.Files), err)
		}

		if row, dup := seen[inv.FileName]; dup {
			logger.Warn("file name already used in this run, earlier receipt is replaced",
				"file", inv.FileName, "row", inv.Entry.RowNumber, "earlier_row", row)
		}
		seen[inv.FileName] = inv.Entry.RowNumber

		path := fm.OutputPath(inv.FileName)
		if err := c.renderer.Render(inv, path); err != nil {
			return result, fmt.Errorf("failed to render receipt for apartment %s: %w", inv.Entry.Apartment, err)
		}
		result.Files = append(result.Files, path)

		if c.ledger != nil {
			if err := c.ledger.RecordReceipt(ctx, ledger.ReceiptFromInvoice(runID, inv)); err != nil {
				return result, err
			}
		}

		c.metrics.ReceiptsIssued.Inc()
		c.metrics.ExtrasIncluded.Add(float64(len(inv.Entry.Extras)))
		logger.Info("receipt written", "file", path, "apartment", inv.Entry.Apartment, "total", inv.FormattedTotal())
	}

	// =========================================================================
	// STEP 5: RUN SUMMARY AND ERROR LOG
	// =========================================================================

	if c.cfg.SummaryWorkbook != "" && len(result.Invoices) > 0 {
		path := fm.OutputPath(c.cfg.SummaryWorkbook)
		if err := report.WriteSummary(path, result.Invoices); err != nil {
			logger.Warn("failed to write run summary", "file", path, "error", err)
		} else {
			result.SummaryPath = path
		}
	}

	if c.cfg.ErrorLogEnabled() && len(result.Failures) > 0 {
		path, err := utils.WriteErrorLog(errorLogEntries(params.InputPath, c.now(), result.Failures), params.OutputDir)
		if err != nil {
			logger.Warn("failed to write error log", "error", err)
		} else {
			result.ErrorLogPath = path
			logger.Info("error log written", "file", path)
		}
	}

	if archived, err := fm.ArchiveInputFile(params.InputPath, started); err != nil {
		logger.Warn("failed to archive input", "file", params.InputPath, "error", err)
	} else if archived != "" {
		logger.Debug("input archived", "file", archived)
	}

	if c.ledger != nil {
		run.FinishedAt = c.now()
		run.Rows = rows
		run.Issued = len(result.Files)
		run.Skipped = result.Stats.Skipped
		if err := c.ledger.FinishRun(ctx, run); err != nil {
			return result, err
		}
	}

	logger.Info("run complete", "receipts", len(result.Files), "skipped", result.Stats.Skipped, "output", params.OutputDir)
	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (c *Converter) buildingIDs() []string {
	ids := make([]string, len(c.cfg.Buildings))
	for i, b := range c.cfg.Buildings {
		ids[i] = b.ID
	}
	return ids
}

func joinFailures(failures []RowFailure) error {
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

// errorLogEntries flattens row failures into one log entry per problem.
func errorLogEntries(inputPath string, at time.Time, failures []RowFailure) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	file := filepath.Base(inputPath)

	for _, f := range failures {
		problems := validation.Unpack(f.Err)
		if len(problems) == 0 {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: at,
				FileName:  file,
				Severity:  string(validation.SeverityError),
				Message:   f.Err.Error(),
				RowNumber: f.RowNumber,
				Apartment: f.Apartment,
			})
			continue
		}
		for _, p := range problems {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: at,
				FileName:  file,
				Severity:  string(p.Severity),
				Message:   p.Message,
				RowNumber: p.RowNumber,
				Apartment: p.Apartment,
				FieldName: p.Field,
				Value:     p.Value,
				Rule:      p.Rule,
			})
		}
	}

	return entries
}
