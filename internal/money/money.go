// Package money parses, rounds and formats the monetary cells of the ledger.
//
// Amounts are handled as exact decimals (shopspring/decimal) so that a cell
// holding "10.005" rounds to "10.01" instead of drifting through float64.
// Rounding is half away from zero at two fractional digits.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every amount is rounded to.
const Places = 2

// ErrMissing is returned by Parse for a blank cell or a missing-value marker.
var ErrMissing = errors.New("missing value")

// maxExponent bounds the decimal exponent of a parsed cell. Spreadsheets
// export large or tiny floats as "1.5E2", but an exponent in the billions
// would make rounding build a number with billions of digits.
const maxExponent = 64

// missingMarkers are the cell texts treated as "no value", compared
// case-insensitively after trimming. They mirror what spreadsheet exports
// commonly write for an unset cell.
var missingMarkers = map[string]struct{}{
	"":     {},
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"#n/a": {},
	"null": {},
	"none": {},
	"-":    {},
}

// currencyPrefixes are stripped from the front of a cell before parsing.
var currencyPrefixes = []string{"S/.", "S/", "PEN"}

// IsMissing reports whether a cell holds the missing-value marker.
func IsMissing(cell string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

// Parse converts a cell to an exact decimal.
// It returns ErrMissing for blank cells and a descriptive error for text
// that is not a number.
func Parse(cell string) (decimal.Decimal, error) {
	if IsMissing(cell) {
		return decimal.Zero, ErrMissing
	}

	s := strings.TrimSpace(cell)
	for _, p := range currencyPrefixes {
		if strings.HasPrefix(strings.ToUpper(s), p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", cell)
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, fmt.Errorf("number out of range: %q", cell)
	}
	return d, nil
}

// Round rounds to two fractional digits, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format renders d rounded to exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Sum adds amounts, treating blank values as zero, and rounds the result.
func Sum(amounts ...decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		if !a.Valid {
			continue
		}
		total = total.Add(a.Decimal)
	}
	return Round(total)
}

// Present wraps d as a non-blank amount.
func Present(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
