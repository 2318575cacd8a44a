package report

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/rent-receipts/internal/types"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWriteSummary(t *testing.T) {
	invoices := []*types.Invoice{
		{
			Entry: types.Entry{
				Apartment: "101", FirstName: "Ana", LastName: "Rojas",
				Rent: dec("500"), Water: dec("25.50"), Energy: dec("40"),
				Extras: []types.ExtraCharge{{Label: "Limpieza", Amount: dec("15.25")}},
			},
			Total:    dec("580.75"),
			FileName: "2024_enero_depa_101_rojas.pdf",
		},
		{
			Entry: types.Entry{
				Apartment: "102", FirstName: "Luis", LastName: "Paredes",
				Rent: dec("450"), Water: dec("20"), Energy: dec("35"),
			},
			Total:    dec("505"),
			FileName: "2024_enero_depa_102_paredes.pdf",
		},
	}

	path := filepath.Join(t.TempDir(), "resumen.xlsx")
	if err := WriteSummary(path, invoices); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open summary: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header, 2 receipts and a totals row, got %d rows", len(rows))
	}
	if rows[0][0] != "Depa" || rows[0][8] != "Archivo" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "101" || rows[1][6] != "15.25" || rows[1][7] != "580.75" {
		t.Errorf("unexpected first receipt row: %v", rows[1])
	}
	if rows[3][0] != "TOTAL" || rows[3][7] != "1085.75" {
		t.Errorf("unexpected totals row: %v", rows[3])
	}
}

func TestWriteSummaryEmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resumen.xlsx")
	if err := WriteSummary(path, nil); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}
}
