package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		cell    string
		want    string
		wantErr error
		anyErr  bool
	}{
		{name: "integer", cell: "10", want: "10"},
		{name: "decimal with spaces", cell: "  25.50 ", want: "25.5"},
		{name: "negative", cell: "-20", want: "-20"},
		{name: "exponent from spreadsheet", cell: "1.5E2", want: "150"},
		{name: "currency prefix", cell: "S/. 40", want: "40"},
		{name: "currency prefix no dot", cell: "S/15.25", want: "15.25"},
		{name: "empty is missing", cell: "", wantErr: ErrMissing},
		{name: "nan is missing", cell: "NaN", wantErr: ErrMissing},
		{name: "n/a is missing", cell: "#N/A", wantErr: ErrMissing},
		{name: "text is not a number", cell: "abc", anyErr: true},
		{name: "huge exponent is rejected", cell: "1e2000000000", anyErr: true},
		{name: "tiny exponent is rejected", cell: "5E-99999999", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.cell)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.cell, err, tt.wantErr)
				}
				return
			}
			if tt.anyErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %s", tt.cell, got)
				}
				if errors.Is(err, ErrMissing) {
					t.Fatalf("Parse(%q) should not report a missing value", tt.cell)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.cell, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Parse(%q) = %s, want %s", tt.cell, got, tt.want)
			}
		})
	}
}

func TestFormatAlwaysTwoDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10", "10.00"},
		{"10.005", "10.01"},
		{"10.004", "10.00"},
		{"0.5", "0.50"},
		{"-2.345", "-2.35"},
		{"1234.5678", "1234.57"},
	}

	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := Format(Round(d)); got != tt.want {
			t.Errorf("Format(Round(%s)) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSumSkipsBlankAmounts(t *testing.T) {
	got := Sum(
		Present(decimal.RequireFromString("500.00")),
		decimal.NullDecimal{},
		Present(decimal.RequireFromString("25.50")),
		Present(decimal.RequireFromString("40.00")),
		Present(decimal.RequireFromString("15.25")),
	)
	if Format(got) != "580.75" {
		t.Errorf("Sum = %s, want 580.75", Format(got))
	}
}
