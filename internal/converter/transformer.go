// =============================================================================
// Rent Receipt Generator - Row Transformer
// =============================================================================
//
// This module converts one raw row of the ledger into a validated Entry.
//
// FIXED FIELDS:
//   - apartment: text; an integral number such as "101.0" is shown as "101"
//   - first_name, last_name: text
//   - rent, water, energy: exact decimals rounded to two digits, >= 0
//
// EXTRA CHARGES:
//   Each (label, amount) pair is included only if the label is non-empty,
//   the amount is present and the rounded amount is non-zero. Included pairs
//   are renumbered from zero so a skipped pair leaves no gap. Long labels are
//   wrapped at whitespace to the configured width.
//
// ERRORS:
//   Every problem in a row becomes a *validation.ValidationError carrying the
//   row number and apartment. All problems of one row are joined with
//   errors.Join so the caller can log them together.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/rent-receipts/internal/money"
	"github.com/ginjaninja78/rent-receipts/internal/schema"
	"github.com/ginjaninja78/rent-receipts/internal/types"
	"github.com/ginjaninja78/rent-receipts/internal/validation"
)

// DefaultWrapWidth is the label wrap width used when none is configured.
const DefaultWrapWidth = 40

// =============================================================================
// TRANSFORMER
// =============================================================================

// TransformOptions controls how rows are converted.
type TransformOptions struct {
	// WrapWidth is the maximum length of one extra charge label line.
	// Zero means DefaultWrapWidth.
	WrapWidth int
}

// Transformer converts the rows of one table under a fixed schema.
type Transformer struct {
	schema  *schema.Schema
	options TransformOptions
}

// NewTransformer creates a new Transformer for a resolved schema.
func NewTransformer(s *schema.Schema, opts TransformOptions) *Transformer {
	if opts.WrapWidth <= 0 {
		opts.WrapWidth = DefaultWrapWidth
	}
	return &Transformer{
		schema:  s,
		options: opts,
	}
}

// RowFailure is a row that could not be converted.
type RowFailure struct {
	// RowNumber is the row in the source table.
	RowNumber int

	// Apartment is the raw apartment cell, possibly empty.
	Apartment string

	// Err joins the row's validation errors.
	Err error
}

// TransformTable converts every row of the table. Rows that fail are
// returned separately and in table order; the caller applies the row error
// policy.
func (t *Transformer) TransformTable(table *types.RawTable) ([]types.Entry, []RowFailure) {
	var entries []types.Entry
	var failures []RowFailure

	for i := range table.Rows {
		entry, err := TransformRow(table, i, t.schema, t.options)
		if err != nil {
			failures = append(failures, RowFailure{
				RowNumber: table.SourceRow(i),
				Apartment: t.rawApartment(table, i),
				Err:       err,
			})
			continue
		}
		entries = append(entries, entry)
	}

	return entries, failures
}

func (t *Transformer) rawApartment(table *types.RawTable, row int) string {
	col, ok := t.schema.Column(schema.FieldApartment)
	if !ok {
		return ""
	}
	return strings.TrimSpace(table.Cell(row, col))
}

// =============================================================================
// ROW TRANSFORMATION
// =============================================================================

// rowReader collects the validation errors of one row while its cells are
// read.
type rowReader struct {
	table     *types.RawTable
	row       int
	schema    *schema.Schema
	rowNumber int
	apartment string
	errs      []error
}

func (r *rowReader) fail(field, value, rule, message string) {
	r.errs = append(r.errs, &validation.ValidationError{
		Severity:  validation.SeverityError,
		Field:     field,
		Value:     value,
		Rule:      rule,
		Message:   message,
		RowNumber: r.rowNumber,
		Apartment: r.apartment,
	})
}

// cell returns the trimmed cell of a canonical field. A missing column is
// recorded as an error.
func (r *rowReader) cell(f schema.Field) (string, bool) {
	col, ok := r.schema.Column(f)
	if !ok {
		r.fail(string(f), "", "column_present", "no column matches this field")
		return "", false
	}
	return strings.TrimSpace(r.table.Cell(r.row, col)), true
}

// text reads a free-text field. Missing-value markers read as "".
func (r *rowReader) text(f schema.Field, required bool) string {
	v, ok := r.cell(f)
	if !ok {
		return ""
	}
	if money.IsMissing(v) {
		if required {
			r.fail(string(f), v, "required", "value is required")
		}
		return ""
	}
	return v
}

// amount reads a required, non-negative monetary field.
func (r *rowReader) amount(f schema.Field) decimal.Decimal {
	v, ok := r.cell(f)
	if !ok {
		return decimal.Zero
	}

	d, err := money.Parse(v)
	switch {
	case errors.Is(err, money.ErrMissing):
		r.fail(string(f), v, "required", "amount is required")
		return decimal.Zero
	case err != nil:
		r.fail(string(f), v, "numeric", "amount is not a number")
		return decimal.Zero
	case d.IsNegative():
		r.fail(string(f), v, "non_negative", "amount must not be negative")
		return decimal.Zero
	}

	return money.Round(d)
}

// TransformRow converts one data row into an Entry.
//
// PARAMETERS:
//   - table: the loaded input table.
//   - row: the zero-based data row index.
//   - s: the resolved column schema.
//   - opts: transformation options.
//
// RETURNS:
//   - The Entry.
//   - nil, or the joined *validation.ValidationError values of the row.
func TransformRow(table *types.RawTable, row int, s *schema.Schema, opts TransformOptions) (types.Entry, error) {
	width := opts.WrapWidth
	if width <= 0 {
		width = DefaultWrapWidth
	}

	r := &rowReader{
		table:     table,
		row:       row,
		schema:    s,
		rowNumber: table.SourceRow(row),
	}

	// The apartment is read first so every later error carries it.
	apartment := normalizeApartment(r.text(schema.FieldApartment, true))
	r.apartment = apartment

	entry := types.Entry{
		RowNumber: r.rowNumber,
		Apartment: apartment,
		FirstName: r.text(schema.FieldFirstName, false),
		LastName:  r.text(schema.FieldLastName, true),
		Rent:      r.amount(schema.FieldRent),
		Water:     r.amount(schema.FieldWater),
		Energy:    r.amount(schema.FieldEnergy),
	}

	for _, pair := range s.Extras {
		charge, ok := r.extra(pair, width)
		if !ok {
			continue
		}
		charge.Index = len(entry.Extras)
		entry.Extras = append(entry.Extras, charge)
	}

	if len(r.errs) > 0 {
		return types.Entry{}, errors.Join(r.errs...)
	}
	return entry, nil
}

// extra reads one extra pair and reports whether it is included.
func (r *rowReader) extra(pair schema.ExtraPair, width int) (types.ExtraCharge, bool) {
	label := strings.TrimSpace(r.table.Cell(r.row, pair.LabelColumn))
	if money.IsMissing(label) {
		return types.ExtraCharge{}, false
	}

	raw := r.table.Cell(r.row, pair.AmountColumn)
	d, err := money.Parse(raw)
	if errors.Is(err, money.ErrMissing) {
		return types.ExtraCharge{}, false
	}
	if err != nil {
		r.fail(pair.AmountHeader, raw, "numeric",
			fmt.Sprintf("amount of %q is not a number", label))
		return types.ExtraCharge{}, false
	}

	amount := money.Round(d)
	if amount.IsZero() {
		return types.ExtraCharge{}, false
	}

	return types.ExtraCharge{
		Label:  WrapLabel(label, width),
		Amount: amount,
	}, true
}

// normalizeApartment shows an integral numeric apartment without its
// fractional part, as spreadsheets often store "101" as "101.0".
// Exponent forms such as "1e2" are kept as typed.
func normalizeApartment(v string) string {
	if strings.ContainsAny(v, "eE") {
		return v
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsInteger() {
		return v
	}
	return d.Truncate(0).String()
}

// =============================================================================
// LABEL WRAPPING
// =============================================================================

// WrapLabel reflows text onto lines of at most width characters, breaking
// only at whitespace. Lines are joined with "\n". A text no longer than
// width is returned trimmed but otherwise unchanged. A single word longer
// than width is kept whole on its own line.
func WrapLabel(text string, width int) string {
	text = strings.TrimSpace(text)
	if width <= 0 || utf8.RuneCountInString(text) <= width {
		return text
	}

	var lines []string
	var line strings.Builder
	lineLen := 0

	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if lineLen > 0 && lineLen+1+n > width {
			lines = append(lines, line.String())
			line.Reset()
			lineLen = 0
		}
		if lineLen > 0 {
			line.WriteByte(' ')
			lineLen++
		}
		line.WriteString(word)
		lineLen += n
	}
	if lineLen > 0 {
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}
