package store

import (
	"context"
	"time"
)

// Store persists canonical records and the ledger of documents already
// ingested. Records are append-only; nothing in the system updates or
// deletes a persisted record.
type Store interface {
	Close() error

	// Ledger
	IsProcessed(ctx context.Context, name string) (bool, error)
	MarkProcessed(ctx context.Context, name string) error

	// Records
	AppendRecords(ctx context.Context, recs []Record) error

	// Run audit trail
	RecordRun(ctx context.Context, run Run) error
}

// Record is one normalized planning-application row in the canonical schema.
type Record struct {
	DateReceived     time.Time
	Address          string
	Description      string
	CouncilReference string // empty when the source document has none
	InfoURL          string
	DateScraped      time.Time
}

// Run summarizes one scrape pass for the audit trail.
type Run struct {
	ID        string
	StartedAt time.Time
	Documents int
	Records   int
}
