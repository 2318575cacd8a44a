// =============================================================================
// Rent Receipt Generator - Run Summary Workbook
// =============================================================================
//
// This module writes one XLSX workbook per run listing every receipt that
// was issued, so the administrator can reconcile the period at a glance.
//
// SHEET "Recibos":
//
//   | Depa | Nombre | Apellido | Alquiler | Agua | Luz | Extras | Total | Archivo |
//
// Amount columns are written as numbers with a two-digit number format.
// A final row sums the amount columns.
//
// =============================================================================

package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/rent-receipts/internal/types"
)

// SheetName is the worksheet holding the summary.
const SheetName = "Recibos"

var headers = []interface{}{
	"Depa", "Nombre", "Apellido", "Alquiler", "Agua", "Luz", "Extras", "Total", "Archivo",
}

// amountColumns are the 1-based columns holding money.
var amountColumns = []int{4, 5, 6, 7, 8}

// WriteSummary writes the summary workbook of a run to path.
//
// PARAMETERS:
//   - path: The output file path.
//   - invoices: The issued invoices, in print order.
//
// RETURNS:
//   - An error if the workbook cannot be built or saved.
func WriteSummary(path string, invoices []*types.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	// Header row.
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "I1", bold); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	// One row per invoice.
	totals := make([]decimal.Decimal, len(amountColumns))
	for i, inv := range invoices {
		extras := decimal.Zero
		for _, extra := range inv.Entry.Extras {
			extras = extras.Add(extra.Amount)
		}
		amounts := []decimal.Decimal{inv.Entry.Rent, inv.Entry.Water, inv.Entry.Energy, extras, inv.Total}
		for j, a := range amounts {
			totals[j] = totals[j].Add(a)
		}

		row := []interface{}{
			inv.Entry.Apartment,
			inv.Entry.FirstName,
			inv.Entry.LastName,
		}
		for _, a := range amounts {
			row = append(row, a.InexactFloat64())
		}
		row = append(row, inv.FileName)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	// Totals row.
	last := len(invoices) + 2
	totalRow := []interface{}{"TOTAL", "", ""}
	for _, t := range totals {
		totalRow = append(totalRow, t.InexactFloat64())
	}
	cell, err := excelize.CoordinatesToCellName(1, last)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &totalRow); err != nil {
		return fmt.Errorf("failed to write totals row: %w", err)
	}
	if err := styleRange(f, 1, last, len(headers), last, bold); err != nil {
		return err
	}

	// Two-digit number format on the amount columns.
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}
	boldMoney, err := f.NewStyle(&excelize.Style{NumFmt: 2, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}
	for _, col := range amountColumns {
		if last > 2 {
			if err := styleRange(f, col, 2, col, last-1, money); err != nil {
				return err
			}
		}
		if err := styleRange(f, col, last, col, last, boldMoney); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 8); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "C", 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "I", "I", 45); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save summary workbook: %w", err)
	}
	return nil
}

// styleRange applies a style to the rectangle between two 1-based
// coordinates.
func styleRange(f *excelize.File, col1, row1, col2, row2, style int) error {
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, from, to, style); err != nil {
		return fmt.Errorf("failed to style %s:%s: %w", from, to, err)
	}
	return nil
}
