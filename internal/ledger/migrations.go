package ledger

import "database/sql"

// schema contains the SQL statements to set up the database.
// These run on startup to ensure tables exist.
// The runs table must be created before receipts due to the foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER,
    input_file TEXT NOT NULL,
    building TEXT NOT NULL,
    year INTEGER NOT NULL,
    month TEXT NOT NULL,
    rows_read INTEGER NOT NULL DEFAULT 0,
    issued INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    year INTEGER NOT NULL,
    month TEXT NOT NULL,
    building TEXT NOT NULL,
    apartment TEXT NOT NULL,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    total TEXT NOT NULL,
    file_name TEXT NOT NULL,
    issued_at INTEGER NOT NULL,
    UNIQUE (year, month, apartment, last_name),
    FOREIGN KEY (run_id) REFERENCES runs(id)
);

CREATE INDEX IF NOT EXISTS idx_receipts_run_id ON receipts(run_id);
CREATE INDEX IF NOT EXISTS idx_receipts_period ON receipts(year, month);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
