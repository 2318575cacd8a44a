// =============================================================================
// Rent Receipt Generator - Column Schema
// =============================================================================
//
// This module maps the free-text headers of the ledger onto the fixed set of
// canonical fields and pairs the leftover ("extra") columns into
// (label, amount) charges.
//
// CLASSIFICATION:
//   Each header is lowercased and tested for containment of the keywords of
//   an ordered rule table. The first matching rule wins:
//
//   | Keyword   | Field      |
//   |-----------|------------|
//   | depa      | apartment  |
//   | nombre    | first_name |
//   | apellido  | last_name  |
//   | alquiler  | rent       |
//   | agua      | water      |
//   | luz       | energy     |
//
//   Matching is case-insensitive but NOT accent-insensitive: the keyword has
//   to appear literally in the header.
//
// PAIRING:
//   Headers matching no rule are extras. They are taken two at a time, in
//   their left-to-right order, as (label column, amount column). Position is
//   the only pairing signal, so an odd number of extras is a fatal error.
//
// =============================================================================

package schema

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrOddExtraColumns is returned when the extra columns cannot be paired.
var ErrOddExtraColumns = errors.New("odd number of extra columns")

// ErrDuplicateColumn is returned when two headers resolve to the same
// canonical field.
var ErrDuplicateColumn = errors.New("duplicate canonical column")

// =============================================================================
// CANONICAL FIELDS
// =============================================================================

// Field is the name of a canonical column.
type Field string

const (
	FieldApartment Field = "apartment"
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldRent      Field = "rent"
	FieldWater     Field = "water"
	FieldEnergy    Field = "energy"
)

// CanonicalFields lists the canonical fields in their display order.
var CanonicalFields = []Field{
	FieldApartment,
	FieldFirstName,
	FieldLastName,
	FieldRent,
	FieldWater,
	FieldEnergy,
}

// ColumnRule maps a header keyword to a canonical field.
type ColumnRule struct {
	// Keyword must appear (lowercase) somewhere in the header.
	Keyword string

	// Field is the canonical field assigned on a match.
	Field Field
}

// DefaultRules is the ordered rule table of the ledger format.
// Order matters: a header is assigned by the first rule it matches.
var DefaultRules = []ColumnRule{
	{Keyword: "depa", Field: FieldApartment},
	{Keyword: "nombre", Field: FieldFirstName},
	{Keyword: "apellido", Field: FieldLastName},
	{Keyword: "alquiler", Field: FieldRent},
	{Keyword: "agua", Field: FieldWater},
	{Keyword: "luz", Field: FieldEnergy},
}

// =============================================================================
// SCHEMA
// =============================================================================

// ExtraPair is one (label, amount) pair of extra columns.
type ExtraPair struct {
	// Index is the zero-based pair number, left to right.
	Index int

	// LabelColumn and AmountColumn are column indexes into the table.
	LabelColumn  int
	AmountColumn int

	// LabelHeader and AmountHeader are the original header texts.
	LabelHeader  string
	AmountHeader string
}

// Schema is the resolved column layout of one table.
type Schema struct {
	// Headers are the original headers, left to right.
	Headers []string

	// Fixed maps each canonical field found to its column index.
	Fixed map[Field]int

	// Extras are the paired extra columns, in index order.
	Extras []ExtraPair
}

// Column returns the column index of a canonical field.
func (s *Schema) Column(f Field) (int, bool) {
	idx, ok := s.Fixed[f]
	return idx, ok
}

// Missing returns the canonical fields that no header matched.
func (s *Schema) Missing() []Field {
	var missing []Field
	for _, f := range CanonicalFields {
		if _, ok := s.Fixed[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Match returns the canonical field of a header under the given rules.
// The second result is false when the header is an extra column.
func Match(header string, rules []ColumnRule) (Field, bool) {
	h := normalizeHeader(header)
	for _, rule := range rules {
		if strings.Contains(h, rule.Keyword) {
			return rule.Field, true
		}
	}
	return "", false
}

// Classify assigns every header either to a canonical field or to the extra
// set. Extras are returned as column indexes in their original order.
//
// RETURNS:
//   - fixed: canonical field -> column index.
//   - extras: indexes of the headers that matched no rule.
//   - An error wrapping ErrDuplicateColumn if two headers claim one field.
func Classify(headers []string, rules []ColumnRule) (map[Field]int, []int, error) {
	fixed := make(map[Field]int)
	var extras []int

	for i, header := range headers {
		field, ok := Match(header, rules)
		if !ok {
			extras = append(extras, i)
			continue
		}
		if prev, dup := fixed[field]; dup {
			return nil, nil, fmt.Errorf("%w: %q and %q both map to %s",
				ErrDuplicateColumn, headers[prev], header, field)
		}
		fixed[field] = i
	}

	return fixed, extras, nil
}

// =============================================================================
// PAIRER
// =============================================================================

// PairExtras groups the extra columns into consecutive (label, amount) pairs.
//
// PARAMETERS:
//   - headers: all table headers.
//   - extras: column indexes of the extra headers, left to right.
//
// RETURNS:
//   - The pairs, indexed from zero.
//   - An error wrapping ErrOddExtraColumns when len(extras) is odd.
func PairExtras(headers []string, extras []int) ([]ExtraPair, error) {
	if len(extras)%2 != 0 {
		names := make([]string, len(extras))
		for i, idx := range extras {
			names[i] = headers[idx]
		}
		return nil, fmt.Errorf("%w: %d (%s)", ErrOddExtraColumns, len(extras), strings.Join(names, ", "))
	}

	pairs := make([]ExtraPair, 0, len(extras)/2)
	for k := 0; k+1 < len(extras); k += 2 {
		label, amount := extras[k], extras[k+1]
		pairs = append(pairs, ExtraPair{
			Index:        k / 2,
			LabelColumn:  label,
			AmountColumn: amount,
			LabelHeader:  headers[label],
			AmountHeader: headers[amount],
		})
	}
	return pairs, nil
}

// =============================================================================
// BUILD
// =============================================================================

// Build classifies and pairs the headers of a table with DefaultRules.
func Build(headers []string) (*Schema, error) {
	return BuildWithRules(headers, DefaultRules)
}

// BuildWithRules classifies and pairs the headers with a custom rule table.
func BuildWithRules(headers []string, rules []ColumnRule) (*Schema, error) {
	fixed, extras, err := Classify(headers, rules)
	if err != nil {
		return nil, err
	}

	pairs, err := PairExtras(headers, extras)
	if err != nil {
		return nil, err
	}

	return &Schema{
		Headers: headers,
		Fixed:   fixed,
		Extras:  pairs,
	}, nil
}

// normalizeHeader lowercases and NFC-composes a header so that a keyword
// typed with precomposed characters matches either form of the header.
func normalizeHeader(header string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(header)))
}
