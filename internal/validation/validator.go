// =============================================================================
// Rent Receipt Generator - Validation Engine
// =============================================================================
//
// This module provides the error type used for every row-level and
// run-level validation problem, plus the checks applied to the run
// parameters before any row is read.
//
// VALIDATION STRATEGY:
//   Validation is performed at two levels:
//   1. Run-level: the RunParameters record is checked once, before the table
//      is opened (ValidateRunParameters).
//   2. Row-level: the Row Transformer reports each bad cell as a
//      *ValidationError carrying the row number and apartment identifier.
//
// ERROR HANDLING:
//   - Errors are collected, not thrown immediately
//   - Each error includes detailed context (row, apartment, field, value)
//   - Errors can be warnings (continue processing) or fatal (stop processing)
//   - Fatal errors match ErrRowValidation with errors.Is
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SEVERITIES
// =============================================================================

const (
	// SeverityError marks a fatal problem: the row (or run) cannot be billed.
	SeverityError = "error"

	// SeverityWarning marks a non-fatal problem that is only reported.
	SeverityWarning = "warning"
)

// ErrRowValidation matches every fatal ValidationError.
var ErrRowValidation = errors.New("row validation failed")

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation error.
type ValidationError struct {
	// Severity indicates the severity of the error.
	// "error" = fatal, the row is not billed
	// "warning" = non-fatal, processing can continue
	Severity string

	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// RowNumber is the original row number in the input table
	// (0 for run-level problems).
	RowNumber int

	// Apartment is the apartment identifier of the offending row, if known.
	Apartment string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var where string
	switch {
	case e.RowNumber > 0 && e.Apartment != "":
		where = fmt.Sprintf("Row %d (depa %s), ", e.RowNumber, e.Apartment)
	case e.RowNumber > 0:
		where = fmt.Sprintf("Row %d, ", e.RowNumber)
	}

	return fmt.Sprintf("[%s] %sField '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		where,
		e.Field,
		e.Message,
		e.Value,
	)
}

// Is reports fatal errors as ErrRowValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrRowValidation && e.Severity == SeverityError
}

// IsWarning reports whether the error is non-fatal.
func (e *ValidationError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// Unpack returns every *ValidationError held by err, looking through
// errors.Join and fmt.Errorf wrapping.
func Unpack(err error) []*ValidationError {
	switch e := err.(type) {
	case nil:
		return nil
	case *ValidationError:
		return []*ValidationError{e}
	case interface{ Unwrap() []error }:
		var out []*ValidationError
		for _, inner := range e.Unwrap() {
			out = append(out, Unpack(inner)...)
		}
		return out
	}
	return Unpack(errors.Unwrap(err))
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all validation errors (including warnings).
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int
}

// Add records an error and updates the counters.
func (r *ValidationResult) Add(err *ValidationError) {
	r.Errors = append(r.Errors, err)
	if err.IsWarning() {
		r.WarningCount++
		return
	}
	r.ErrorCount++
	r.IsValid = false
}

// Warnings returns the non-fatal errors.
func (r *ValidationResult) Warnings() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.IsWarning() {
			out = append(out, e)
		}
	}
	return out
}

// Err joins the fatal errors into one error, or returns nil.
func (r *ValidationResult) Err() error {
	var errs []error
	for _, e := range r.Errors {
		if !e.IsWarning() {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// RUN PARAMETER VALIDATION
// =============================================================================

// MonthNames are the billing month display names offered by the original
// parameter form. Any other month is accepted with a warning.
var MonthNames = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

const (
	// MinYear and MaxYear bound the years offered by the parameter form.
	MinYear = 2020
	MaxYear = 2050
)

// RunCheck is the subset of the run parameters validated before a run.
type RunCheck struct {
	Building  string
	Year      int
	Month     string
	InputPath string
	OutputDir string
}

// ValidateRunParameters checks the run parameters.
//
// PARAMETERS:
//   - run: the parameters to check.
//   - buildings: the known building identifiers.
//
// RETURNS:
//   - A ValidationResult. Empty month, a non-positive year and missing
//     paths are fatal. An unknown month, an out-of-range year and an unknown
//     building are warnings.
func ValidateRunParameters(run RunCheck, buildings []string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if strings.TrimSpace(run.Month) == "" {
		result.Add(&ValidationError{
			Severity: SeverityError,
			Field:    "month",
			Rule:     "required",
			Message:  "billing month is required",
		})
	} else if !containsFold(MonthNames, run.Month) {
		result.Add(&ValidationError{
			Severity: SeverityWarning,
			Field:    "month",
			Value:    run.Month,
			Rule:     "month_name",
			Message:  "not a known month name",
		})
	}

	switch {
	case run.Year <= 0:
		result.Add(&ValidationError{
			Severity: SeverityError,
			Field:    "year",
			Value:    fmt.Sprint(run.Year),
			Rule:     "positive",
			Message:  "billing year must be positive",
		})
	case run.Year < MinYear || run.Year > MaxYear:
		result.Add(&ValidationError{
			Severity: SeverityWarning,
			Field:    "year",
			Value:    fmt.Sprint(run.Year),
			Rule:     "range",
			Message:  fmt.Sprintf("year outside %d-%d", MinYear, MaxYear),
		})
	}

	if strings.TrimSpace(run.InputPath) == "" {
		result.Add(&ValidationError{
			Severity: SeverityError,
			Field:    "input",
			Rule:     "required",
			Message:  "input table path is required",
		})
	}
	if strings.TrimSpace(run.OutputDir) == "" {
		result.Add(&ValidationError{
			Severity: SeverityError,
			Field:    "output_dir",
			Rule:     "required",
			Message:  "output directory is required",
		})
	}

	if !containsFold(buildings, run.Building) {
		result.Add(&ValidationError{
			Severity: SeverityWarning,
			Field:    "building",
			Value:    run.Building,
			Rule:     "known_building",
			Message:  "unknown building, the default address will be used",
		})
	}

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
