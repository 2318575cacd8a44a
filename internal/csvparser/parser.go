// =============================================================================
// Rent Receipt Generator - CSV Parser Module
// =============================================================================
//
// This module is responsible for reading the tenant ledger when it is
// exported as delimited text instead of a workbook. It handles:
//   - Different delimiters (comma, semicolon, tab, pipe)
//   - Different encodings (UTF-8 with or without BOM, ISO-8859-1, Windows-1252)
//   - Quoted fields, including values spanning several lines
//
// The first record is the header row. Every later non-empty record is a data
// row; its source line number is kept for error reporting.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/internal/types"
)

// ErrEmptyFile is returned when the file holds no header row.
var ErrEmptyFile = errors.New("CSV file is empty")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed table.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings from the configuration.
//
// RETURNS:
//   - A pointer to the RawTable containing headers and rows.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings) (*types.RawTable, error) {
	// Open the file.
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath

	return table, nil
}

// ParseReader parses CSV data from r.
//
// PARSING PROCESS:
//   1. Decode the byte stream from the configured encoding to UTF-8
//   2. Configure the CSV reader with the configured delimiter
//   3. Read the header record
//   4. Read the data records, skipping empty ones
//   5. Clean the headers against the data, so no filled column is lost
func ParseReader(r io.Reader, settings config.CSVSettings) (*types.RawTable, error) {
	decoder, err := Decoder(settings.Encoding)
	if err != nil {
		return nil, err
	}

	// Create a buffered, decoding reader.
	reader := transform.NewReader(bufio.NewReader(r), decoder.NewDecoder())

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	// Read the header record.
	headerRecord, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	table := &types.RawTable{}

	// Read the data records.
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if isRowEmpty(record) {
			continue
		}

		line, _ := csvReader.FieldPos(0)
		table.Rows = append(table.Rows, trimCells(record))
		table.RowNumbers = append(table.RowNumbers, line)
	}

	table.Headers = types.CleanHeaders(headerRecord, table.Rows)

	return table, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	// Set the delimiter.
	// Handle special cases for common delimiters.
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = []rune(settings.Delimiter)[0]
		} else {
			reader.Comma = ',' // Default to comma
		}
	}

	// Allow variable number of fields per row.
	// Ledgers often end rows early when the trailing extra charges are blank.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	// Trim leading space from fields.
	reader.TrimLeadingSpace = true
}

// Decoder returns the text encoding for a configured encoding name.
// UTF-8 input may start with a byte order mark, which is removed.
func Decoder(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "UTF-8", "UTF8":
		return unicode.UTF8BOM, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// =============================================================================
// HEADER AND ROW CLEANING
// =============================================================================

// trimCells trims whitespace from every value of a record.
func trimCells(record []string) []string {
	out := make([]string, len(record))
	for i, cell := range record {
		out[i] = strings.TrimSpace(cell)
	}
	return out
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
