// Package ledger keeps a SQLite register of billing runs and the receipts
// they issued, so a period can be audited or re-listed later.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/ginjaninja78/rent-receipts/internal/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Run is one execution of the generator.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	InputFile  string
	Building   string
	Year       int
	Month      string
	Rows       int
	Issued     int
	Skipped    int
}

// Receipt is one issued document.
type Receipt struct {
	ID        string
	RunID     string
	Year      int
	Month     string
	Building  string
	Apartment string
	FirstName string
	LastName  string
	Total     decimal.Decimal
	FileName  string
	IssuedAt  time.Time
}

// Filter selects receipts. Zero fields match everything.
type Filter struct {
	Year      int
	Month     string
	Apartment string
}

// ReceiptFromInvoice builds the ledger record of a rendered invoice.
func ReceiptFromInvoice(runID string, inv *types.Invoice) *Receipt {
	return &Receipt{
		RunID:     runID,
		Year:      inv.Params.Year,
		Month:     inv.Params.Month,
		Building:  inv.Address.Building,
		Apartment: inv.Entry.Apartment,
		FirstName: inv.Entry.FirstName,
		LastName:  inv.Entry.LastName,
		Total:     inv.Total,
		FileName:  inv.FileName,
		IssuedAt:  inv.IssuedAt,
	}
}

// Store is the SQLite-backed ledger.
type Store struct {
	db *sql.DB
}

// New opens the ledger at dbPath.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists the start of a run. The ID is generated if not set.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, input_file, building, year, month)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Unix(), run.InputFile, run.Building, run.Year, run.Month,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// FinishRun stores the counters and end time of a run.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, rows_read = ?, issued = ?, skipped = ? WHERE id = ?`,
		run.FinishedAt.Unix(), run.Rows, run.Issued, run.Skipped, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{}
	var startedAt int64
	var finishedAt sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, input_file, building, year, month, rows_read, issued, skipped
		 FROM runs WHERE id = ?`,
		runID,
	).Scan(&run.ID, &startedAt, &finishedAt, &run.InputFile, &run.Building,
		&run.Year, &run.Month, &run.Rows, &run.Issued, &run.Skipped)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.StartedAt = time.Unix(startedAt, 0)
	if finishedAt.Valid {
		run.FinishedAt = time.Unix(finishedAt.Int64, 0)
	}

	return run, nil
}

// RecordReceipt persists an issued receipt. Re-issuing the receipt of the
// same (year, month, apartment, last name) replaces the earlier record and
// keeps its ID.
func (s *Store) RecordReceipt(ctx context.Context, r *Receipt) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.IssuedAt.IsZero() {
		r.IssuedAt = time.Now()
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO receipts (id, run_id, year, month, building, apartment, first_name, last_name, total, file_name, issued_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (year, month, apartment, last_name) DO UPDATE SET
		     run_id = excluded.run_id,
		     building = excluded.building,
		     first_name = excluded.first_name,
		     total = excluded.total,
		     file_name = excluded.file_name,
		     issued_at = excluded.issued_at
		 RETURNING id`,
		r.ID, r.RunID, r.Year, r.Month, r.Building, r.Apartment, r.FirstName, r.LastName,
		r.Total.StringFixed(2), r.FileName, r.IssuedAt.Unix(),
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert receipt: %w", err)
	}

	return nil
}

// ListReceipts retrieves the receipts matching f, newest period first.
func (s *Store) ListReceipts(ctx context.Context, f Filter) ([]*Receipt, error) {
	var where []string
	var args []interface{}

	if f.Year != 0 {
		where = append(where, "year = ?")
		args = append(args, f.Year)
	}
	if f.Month != "" {
		where = append(where, "month = ? COLLATE NOCASE")
		args = append(args, f.Month)
	}
	if f.Apartment != "" {
		where = append(where, "apartment = ?")
		args = append(args, f.Apartment)
	}

	query := `SELECT id, run_id, year, month, building, apartment, first_name, last_name, total, file_name, issued_at
		FROM receipts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY year DESC, issued_at DESC, apartment"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*Receipt
	for rows.Next() {
		r := &Receipt{}
		var total string
		var issuedAt int64

		if err := rows.Scan(&r.ID, &r.RunID, &r.Year, &r.Month, &r.Building, &r.Apartment,
			&r.FirstName, &r.LastName, &total, &r.FileName, &issuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}

		r.Total, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("receipt %s has an invalid total %q: %w", r.ID, total, err)
		}
		r.IssuedAt = time.Unix(issuedAt, 0)

		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}

	return receipts, nil
}
