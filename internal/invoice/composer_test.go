package invoice

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/internal/types"
)

var params = types.RunParameters{
	Building: "COLQUEPATA",
	Year:     2024,
	Month:    "Enero",
	Water:    types.DateRange{Start: "01/12/23", End: "31/12/23"},
	Energy:   types.DateRange{Start: "05/12/23", End: "04/01/24"},
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleEntry() types.Entry {
	return types.Entry{
		Apartment: "101",
		FirstName: "Ana",
		LastName:  "Quispe Huamán",
		Rent:      dec("500.00"),
		Water:     dec("25.50"),
		Energy:    dec("40.00"),
		Extras: []types.ExtraCharge{
			{Index: 0, Label: "Limpieza", Amount: dec("15.25")},
		},
	}
}

func TestCompose(t *testing.T) {
	issued := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := NewComposer(config.Default(), WithClock(func() time.Time { return issued }))

	inv := c.Compose(sampleEntry(), params)

	want := []struct {
		desc   string
		amount string
	}{
		{"Renta Enero 2024", "500.00"},
		{"Agua del 01/12/23 al 31/12/23", "25.50"},
		{"Luz del 05/12/23 al 04/01/24", "40.00"},
		{"Limpieza", "15.25"},
		{"TOTAL", "580.75"},
	}

	if len(inv.LineItems) != len(want) {
		t.Fatalf("got %d line items, want %d", len(inv.LineItems), len(want))
	}
	for i, w := range want {
		li := inv.LineItems[i]
		if li.Description != w.desc || li.FormattedAmount() != w.amount {
			t.Errorf("item %d = (%q, %q), want (%q, %q)", i, li.Description, li.FormattedAmount(), w.desc, w.amount)
		}
	}

	if inv.FormattedTotal() != "580.75" {
		t.Errorf("total = %s, want 580.75", inv.FormattedTotal())
	}
	if inv.Address.Street != "Jr. Colquepata 215" {
		t.Errorf("street = %q", inv.Address.Street)
	}
	if len(inv.Address.Lines) != 3 {
		t.Errorf("expected 3 static address lines, got %v", inv.Address.Lines)
	}
	if !inv.IssuedAt.Equal(issued) {
		t.Errorf("IssuedAt = %v, want %v", inv.IssuedAt, issued)
	}
	if inv.Period() != "Enero 2024" {
		t.Errorf("Period = %q", inv.Period())
	}
	if inv.FileName != "2024_enero_depa_101_quispe_huamán.pdf" {
		t.Errorf("FileName = %q", inv.FileName)
	}
}

func TestComposeUnknownBuildingFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := NewComposer(config.Default(), WithLogger(logger))

	p := params
	p.Building = "MIRAFLORES"
	inv := c.Compose(sampleEntry(), p)

	if inv.Address.Street != "Jr. Quipaypampa 227" || inv.Address.Building != "QUIPAYPAMPA" {
		t.Errorf("unexpected fallback address: %+v", inv.Address)
	}
	if !strings.Contains(buf.String(), "MIRAFLORES") {
		t.Errorf("expected a warning naming the building, got %q", buf.String())
	}
}

func TestTotalWithoutExtras(t *testing.T) {
	e := sampleEntry()
	e.Extras = nil
	if got := Total(e).StringFixed(2); got != "565.50" {
		t.Errorf("Total = %s, want 565.50", got)
	}
}

func TestTotalWithDiscount(t *testing.T) {
	e := sampleEntry()
	e.Extras = append(e.Extras, types.ExtraCharge{Index: 1, Label: "Descuento", Amount: dec("-20.75")})
	if got := Total(e).StringFixed(2); got != "560.00" {
		t.Errorf("Total = %s, want 560.00", got)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		year      int
		month     string
		apartment string
		lastName  string
		want      string
	}{
		{2024, "Enero", "101", "Quispe", "2024_enero_depa_101_quispe.pdf"},
		{2024, "Febrero", "2B", "De La Cruz", "2024_febrero_depa_2B_de_la_cruz.pdf"},
		{2023, "Diciembre", "3", "Ñahui", "2023_diciembre_depa_3_ñahui.pdf"},
		{2023, "Marzo", "4/5", "Rojas", "2023_marzo_depa_4_5_rojas.pdf"},
	}

	for _, tt := range tests {
		got := FileName(tt.year, tt.month, tt.apartment, tt.lastName)
		if got != tt.want {
			t.Errorf("FileName(%d, %q, %q, %q) = %q, want %q", tt.year, tt.month, tt.apartment, tt.lastName, got, tt.want)
		}
		if again := FileName(tt.year, tt.month, tt.apartment, tt.lastName); again != got {
			t.Errorf("FileName is not deterministic: %q != %q", again, got)
		}
	}
}
