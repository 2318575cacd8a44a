// =============================================================================
// Rent Receipt Generator - XLSX Ledger Parser
// =============================================================================
//
// This module is responsible for reading the tenant ledger from an Excel
// workbook. The ledger is kept on one worksheet (by default "CSV"):
//
//   | Depa | Nombre | Apellido | Alquiler | Agua  | Luz   | Concepto 1 | Monto 1 |
//   |------|--------|----------|----------|-------|-------|------------|---------|
//   | 101  | Ana    | Rojas    | 500      | 25.5  | 40    | Limpieza   | 15.25   |
//
// The first row holds the headers. Only the first MaxColumns columns
// (A:P by default) are read. Cells are read as raw values so that a number
// formatted as currency in the workbook still parses as a number.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/internal/types"
)

// ErrSheetNotFound is returned when the configured worksheet does not exist.
var ErrSheetNotFound = errors.New("worksheet not found")

// ErrEmptySheet is returned when the worksheet holds no header row.
var ErrEmptySheet = errors.New("worksheet is empty")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the ledger worksheet of an XLSX workbook.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - settings: The input settings (sheet name, column limit).
//
// RETURNS:
//   - A pointer to the RawTable containing headers and rows.
//   - An error if the workbook cannot be opened or the sheet is missing.
func Parse(path string, settings config.InputSettings) (*types.RawTable, error) {
	// Open the XLSX file.
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	table, err := ParseFile(f, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = path

	return table, nil
}

// ParseFile reads the ledger worksheet of an already opened workbook.
func ParseFile(f *excelize.File, settings config.InputSettings) (*types.RawTable, error) {
	sheet := settings.Sheet
	if sheet == "" {
		sheet = "CSV"
	}

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			ErrSheetNotFound, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	// Get all rows from the sheet.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	// The header is the first non-empty row.
	headerIndex := -1
	for i, row := range rows {
		if !isRowEmpty(row) {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySheet, sheet)
	}

	table := &types.RawTable{}

	// Parse each data row.
	for i := headerIndex + 1; i < len(rows); i++ {
		row := limitColumns(rows[i], settings.MaxColumns)

		// Skip empty rows.
		if isRowEmpty(row) {
			continue
		}

		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
		}

		table.Rows = append(table.Rows, cells)
		table.RowNumbers = append(table.RowNumbers, i+1)
	}

	table.Headers = types.CleanHeaders(limitColumns(rows[headerIndex], settings.MaxColumns), table.Rows)

	return table, nil
}

// limitColumns keeps the first max cells of a row. Zero means no limit.
func limitColumns(row []string, max int) []string {
	if max > 0 && len(row) > max {
		return row[:max]
	}
	return row
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
