// =============================================================================
// Rent Receipt Generator - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser / xlsxparser (RawTable)
//   - converter (Entry)
//   - invoice (Invoice, LineItem)
//   - pdfwriter, report, ledger (Invoice)
//
// =============================================================================

package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT TABLE
// =============================================================================

// RawTable is the input ledger exactly as it was read from disk.
// Rows correspond positionally to Headers; a cell missing from a short row
// reads as the empty string.
type RawTable struct {
	// SourceFile is the path the table was loaded from.
	SourceFile string

	// Headers contains the cleaned column headers, left to right.
	Headers []string

	// Rows contains the data rows. Empty rows are already skipped.
	Rows [][]string

	// RowNumbers holds the 1-based line/row number in the source file for
	// each entry of Rows. Used for error reporting.
	RowNumbers []int
}

// Cell returns the trimmed-by-loader value at (row, col), or "" when the
// row is shorter than col.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// SourceRow returns the source-file row number for the data row at index i.
func (t *RawTable) SourceRow(i int) int {
	if i >= 0 && i < len(t.RowNumbers) {
		return t.RowNumbers[i]
	}
	return i + 2
}

// CleanHeaders trims the header cells and names the empty ones Column_N.
// The table is as wide as its widest row. A trailing column is dropped only
// when both its header and every data cell in it are empty, so a charge
// typed under a blank header is kept.
func CleanHeaders(headers []string, rows [][]string) []string {
	width := len(headers)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	for width > 0 && columnEmpty(headers, rows, width-1) {
		width--
	}

	cleaned := make([]string, width)
	for i := range cleaned {
		var header string
		if i < len(headers) {
			header = strings.TrimSpace(headers[i])
		}
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

func columnEmpty(headers []string, rows [][]string, col int) bool {
	if col < len(headers) && strings.TrimSpace(headers[col]) != "" {
		return false
	}
	for _, row := range rows {
		if col < len(row) && strings.TrimSpace(row[col]) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// RUN PARAMETERS
// =============================================================================

// DateRange is a labelled service period. Both ends are free text and are
// only ever used for display.
type DateRange struct {
	Start string
	End   string
}

// RunParameters is everything the engine needs to know about one billing run.
// It is built once, before any row is read, and never mutated.
type RunParameters struct {
	// Building identifies the property. Unknown identifiers fall back to the
	// default building's address.
	Building string

	// Year is the billing year (display only).
	Year int

	// Month is the billing month display name, e.g. "Enero".
	Month string

	// Water is the water service period.
	Water DateRange

	// Energy is the electricity service period.
	Energy DateRange

	// InputPath is the path to the ledger table.
	InputPath string

	// OutputDir is where one document per tenant is written.
	OutputDir string
}

// =============================================================================
// ENTRY
// =============================================================================

// ExtraCharge is one included ad-hoc charge of an Entry.
type ExtraCharge struct {
	// Index is the consecutive position among the included charges (0-based).
	Index int

	// Label is the description, possibly wrapped onto several lines
	// separated by "\n".
	Label string

	// Amount is rounded to two fractional digits and never zero.
	Amount decimal.Decimal
}

// Entry is one tenant's normalized, validated row.
type Entry struct {
	// RowNumber is the source-file row the entry came from.
	RowNumber int

	Apartment string
	FirstName string
	LastName  string

	// Rent, Water and Energy are non-negative and rounded to two digits.
	Rent   decimal.Decimal
	Water  decimal.Decimal
	Energy decimal.Decimal

	// Extras holds the included ad-hoc charges in index order.
	Extras []ExtraCharge
}

// FormattedRent returns the rent with exactly two fractional digits.
func (e Entry) FormattedRent() string { return e.Rent.StringFixed(2) }

// FormattedWater returns the water charge with exactly two fractional digits.
func (e Entry) FormattedWater() string { return e.Water.StringFixed(2) }

// FormattedEnergy returns the energy charge with exactly two fractional digits.
func (e Entry) FormattedEnergy() string { return e.Energy.StringFixed(2) }

// =============================================================================
// INVOICE
// =============================================================================

// LineItem is one printed row of the charges table.
// A blank amount is represented by Amount.Valid == false.
type LineItem struct {
	Description string
	Amount      decimal.NullDecimal
}

// FormattedAmount returns the amount with two fractional digits, or "" when
// the amount is blank.
func (li LineItem) FormattedAmount() string {
	if !li.Amount.Valid {
		return ""
	}
	return li.Amount.Decimal.StringFixed(2)
}

// Address is the printed location block of a building.
type Address struct {
	// Building is the identifier the address was resolved for.
	Building string

	// Street is the first, building-specific line.
	Street string

	// Lines are the static lines printed under the street.
	Lines []string
}

// Invoice is one Entry combined with the run parameters, ready for rendering.
type Invoice struct {
	Entry  Entry
	Params RunParameters

	// Address is the resolved building address.
	Address Address

	// LineItems are in print order; the last one is the TOTAL row.
	LineItems []LineItem

	// Total is the rounded sum of every charge.
	Total decimal.Decimal

	// FileName is the deterministic output file name (no directory).
	FileName string

	// IssuedAt is the issue date printed on the document.
	IssuedAt time.Time
}

// FormattedTotal returns the total with exactly two fractional digits.
func (inv *Invoice) FormattedTotal() string {
	return inv.Total.StringFixed(2)
}

// Period returns the "{month} {year}" display string.
func (inv *Invoice) Period() string {
	return inv.Params.Month + " " + strconv.Itoa(inv.Params.Year)
}
