package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stanle/cityperthscraper/pkg/scraper/store"
)

// dateLayout is how calendar dates are stored; run timestamps use RFC 3339.
const dateLayout = "2006-01-02"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and creates the schema
// if it does not exist.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS data (
	date_received TEXT NOT NULL,
	address TEXT NOT NULL,
	description TEXT NOT NULL,
	council_reference TEXT,
	info_url TEXT NOT NULL,
	date_scraped TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files_processed (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	documents INTEGER NOT NULL,
	records INTEGER NOT NULL
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// IsProcessed reports whether a document title is already in the ledger.
func (s *sqliteStore) IsProcessed(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM files_processed WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkProcessed appends a document title to the ledger.
func (s *sqliteStore) MarkProcessed(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO files_processed (name) VALUES (?)`, name)
	return err
}

// AppendRecords appends canonical records in a single transaction.
func (s *sqliteStore) AppendRecords(ctx context.Context, recs []store.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO data (date_received, address, description, council_reference, info_url, date_scraped)
VALUES (?, ?, ?, ?, ?, ?);
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		ref := sql.NullString{String: r.CouncilReference, Valid: r.CouncilReference != ""}
		if _, err := stmt.ExecContext(ctx,
			r.DateReceived.Format(dateLayout),
			r.Address,
			r.Description,
			ref,
			r.InfoURL,
			r.DateScraped.Format(dateLayout),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecordRun stores the summary of one scrape pass.
func (s *sqliteStore) RecordRun(ctx context.Context, run store.Run) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, started_at, documents, records) VALUES (?, ?, ?, ?);
`, run.ID, run.StartedAt.UTC().Format(time.RFC3339), run.Documents, run.Records)
	return err
}
