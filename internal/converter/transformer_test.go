package converter

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ginjaninja78/rent-receipts/internal/schema"
	"github.com/ginjaninja78/rent-receipts/internal/types"
	"github.com/ginjaninja78/rent-receipts/internal/validation"
)

var ledgerHeaders = []string{
	"Depa", "Nombre", "Apellido", "Alquiler", "Agua", "Luz",
	"Concepto 1", "Monto 1", "Concepto 2", "Monto 2", "Concepto 3", "Monto 3",
}

func newTable(t *testing.T, rows ...[]string) (*types.RawTable, *schema.Schema) {
	t.Helper()

	s, err := schema.Build(ledgerHeaders)
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	table := &types.RawTable{Headers: ledgerHeaders, Rows: rows}
	for i := range rows {
		table.RowNumbers = append(table.RowNumbers, i+2)
	}
	return table, s
}

func TestTransformRow(t *testing.T) {
	table, s := newTable(t,
		[]string{"101.0", "Ana", "Quispe Huamán", "500", "25.5", "40", "Limpieza", "15.25", "", "", "", ""},
	)

	entry, err := TransformRow(table, 0, s, TransformOptions{})
	if err != nil {
		t.Fatalf("TransformRow failed: %v", err)
	}

	if entry.Apartment != "101" {
		t.Errorf("Apartment = %q, want 101", entry.Apartment)
	}
	if entry.FirstName != "Ana" || entry.LastName != "Quispe Huamán" {
		t.Errorf("unexpected names: %q %q", entry.FirstName, entry.LastName)
	}
	if entry.FormattedRent() != "500.00" || entry.FormattedWater() != "25.50" || entry.FormattedEnergy() != "40.00" {
		t.Errorf("unexpected amounts: %s %s %s", entry.FormattedRent(), entry.FormattedWater(), entry.FormattedEnergy())
	}
	if entry.RowNumber != 2 {
		t.Errorf("RowNumber = %d, want 2", entry.RowNumber)
	}
	if len(entry.Extras) != 1 || entry.Extras[0].Label != "Limpieza" || entry.Extras[0].Amount.StringFixed(2) != "15.25" {
		t.Errorf("unexpected extras: %+v", entry.Extras)
	}
}

func TestTransformRowExtraInclusion(t *testing.T) {
	tests := []struct {
		name       string
		extras     []string
		wantLabels []string
	}{
		{
			name:       "all included",
			extras:     []string{"A", "1", "B", "2", "C", "3"},
			wantLabels: []string{"A", "B", "C"},
		},
		{
			name:       "empty label is skipped",
			extras:     []string{"", "10", "B", "2", "C", "3"},
			wantLabels: []string{"B", "C"},
		},
		{
			name:       "missing amount is skipped",
			extras:     []string{"A", "nan", "B", "", "C", "3"},
			wantLabels: []string{"C"},
		},
		{
			name:       "zero amount is skipped",
			extras:     []string{"A", "0", "B", "0.00", "C", "0.001"},
			wantLabels: nil,
		},
		{
			name:       "negative amount is kept",
			extras:     []string{"Descuento", "-20", "", "", "", ""},
			wantLabels: []string{"Descuento"},
		},
		{
			name:       "nan label is skipped",
			extras:     []string{"NaN", "5", "", "", "Gas", "12"},
			wantLabels: []string{"Gas"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := append([]string{"1", "Ana", "Rojas", "100", "10", "10"}, tt.extras...)
			table, s := newTable(t, row)

			entry, err := TransformRow(table, 0, s, TransformOptions{})
			if err != nil {
				t.Fatalf("TransformRow failed: %v", err)
			}

			if len(entry.Extras) != len(tt.wantLabels) {
				t.Fatalf("got %d extras, want %d: %+v", len(entry.Extras), len(tt.wantLabels), entry.Extras)
			}
			for i, extra := range entry.Extras {
				if extra.Index != i {
					t.Errorf("extra %d has Index %d", i, extra.Index)
				}
				if extra.Label != tt.wantLabels[i] {
					t.Errorf("extra %d label = %q, want %q", i, extra.Label, tt.wantLabels[i])
				}
				if extra.Amount.IsZero() {
					t.Errorf("extra %d has a zero amount", i)
				}
			}
		})
	}
}

func TestTransformRowErrors(t *testing.T) {
	tests := []struct {
		name       string
		row        []string
		wantFields []string
	}{
		{
			name:       "missing rent",
			row:        []string{"101", "Ana", "Rojas", "", "10", "10"},
			wantFields: []string{"rent"},
		},
		{
			name:       "non-numeric water",
			row:        []string{"101", "Ana", "Rojas", "100", "diez", "10"},
			wantFields: []string{"water"},
		},
		{
			name:       "negative energy",
			row:        []string{"101", "Ana", "Rojas", "100", "10", "-1"},
			wantFields: []string{"energy"},
		},
		{
			name:       "missing apartment and last name",
			row:        []string{"", "Ana", "", "100", "10", "10"},
			wantFields: []string{"apartment", "last_name"},
		},
		{
			name:       "rent with a huge exponent",
			row:        []string{"101", "Ana", "Rojas", "1e2000000000", "10", "10"},
			wantFields: []string{"rent"},
		},
		{
			name:       "labelled extra with text amount",
			row:        []string{"101", "Ana", "Rojas", "100", "10", "10", "Gas", "doce"},
			wantFields: []string{"Monto 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, s := newTable(t, tt.row)

			_, err := TransformRow(table, 0, s, TransformOptions{})
			if !errors.Is(err, validation.ErrRowValidation) {
				t.Fatalf("expected a row validation error, got %v", err)
			}

			got := validation.Unpack(err)
			if len(got) != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %v", len(got), len(tt.wantFields), err)
			}
			for i, ve := range got {
				if ve.Field != tt.wantFields[i] {
					t.Errorf("error %d field = %q, want %q", i, ve.Field, tt.wantFields[i])
				}
				if ve.RowNumber != 2 {
					t.Errorf("error %d RowNumber = %d, want 2", i, ve.RowNumber)
				}
			}
		})
	}
}

func TestTransformRowErrorCarriesApartment(t *testing.T) {
	table, s := newTable(t, []string{"204", "Luis", "Paredes", "abc", "10", "10"})

	_, err := TransformRow(table, 0, s, TransformOptions{})
	got := validation.Unpack(err)
	if len(got) != 1 || got[0].Apartment != "204" {
		t.Fatalf("expected one error for apartment 204, got %v", err)
	}
}

func TestTransformRowApartmentExponentKept(t *testing.T) {
	table, s := newTable(t, []string{"1e2", "Ana", "Rojas", "100", "10", "10"})

	entry, err := TransformRow(table, 0, s, TransformOptions{})
	if err != nil {
		t.Fatalf("TransformRow failed: %v", err)
	}
	if entry.Apartment != "1e2" {
		t.Errorf("Apartment = %q, want 1e2", entry.Apartment)
	}
}

func TestTransformRowMissingColumn(t *testing.T) {
	headers := []string{"Depa", "Nombre", "Apellido", "Alquiler", "Agua"}
	s, err := schema.Build(headers)
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}
	table := &types.RawTable{Headers: headers, Rows: [][]string{{"1", "Ana", "Rojas", "100", "10"}}}

	_, err = TransformRow(table, 0, s, TransformOptions{})
	got := validation.Unpack(err)
	if len(got) != 1 || got[0].Field != "energy" || got[0].Rule != "column_present" {
		t.Fatalf("expected a missing energy column error, got %v", err)
	}
}

func TestTransformTable(t *testing.T) {
	table, s := newTable(t,
		[]string{"101", "Ana", "Rojas", "100", "10", "10"},
		[]string{"102", "Luis", "Paredes", "x", "10", "10"},
		[]string{"103", "Rosa", "Mamani", "200", "20", "20"},
	)

	entries, failures := NewTransformer(s, TransformOptions{}).TransformTable(table)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if len(failures) != 1 || failures[0].Apartment != "102" || failures[0].RowNumber != 3 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
}

func TestWrapLabel(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{
			name:  "short label unchanged",
			text:  "Limpieza",
			width: 40,
			want:  "Limpieza",
		},
		{
			name:  "wraps at word boundaries",
			text:  "Mantenimiento de areas comunes del edificio",
			width: 20,
			want:  "Mantenimiento de\nareas comunes del\nedificio",
		},
		{
			name:  "long word stands alone",
			text:  "Supercalifragilistico extra",
			width: 10,
			want:  "Supercalifragilistico\nextra",
		},
		{
			name:  "collapses inner whitespace when wrapping",
			text:  "uno  dos   tres cuatro",
			width: 8,
			want:  "uno dos\ntres\ncuatro",
		},
		{
			name:  "counts runes not bytes",
			text:  "reparación baño",
			width: 15,
			want:  "reparación baño",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapLabel(tt.text, tt.width)
			if got != tt.want {
				t.Errorf("WrapLabel(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapLabelNeverSplitsWords(t *testing.T) {
	text := "Cobro adicional por reparacion de la bomba de agua del tanque elevado"
	words := strings.Fields(text)

	for width := 5; width <= 45; width++ {
		got := WrapLabel(text, width)
		if strings.Join(strings.Fields(got), " ") != strings.Join(words, " ") {
			t.Fatalf("width %d: words changed: %q", width, got)
		}
		for _, line := range strings.Split(got, "\n") {
			if utf8.RuneCountInString(line) > width && strings.Contains(line, " ") {
				t.Errorf("width %d: line %q is too long", width, line)
			}
		}
	}
}
