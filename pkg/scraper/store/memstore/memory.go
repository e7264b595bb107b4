package memstore

import (
	"context"
	"sync"

	"github.com/stanle/cityperthscraper/pkg/scraper/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	processed map[string]struct{}
	records   []store.Record
	runs      []store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{processed: make(map[string]struct{})}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// IsProcessed reports whether a document title is in the ledger.
func (s *Store) IsProcessed(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processed[name]
	return ok, nil
}

// MarkProcessed appends a document title to the ledger.
func (s *Store) MarkProcessed(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[name] = struct{}{}
	return nil
}

// AppendRecords appends canonical records.
func (s *Store) AppendRecords(ctx context.Context, recs []store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, recs...)
	return nil
}

// RecordRun stores a run summary.
func (s *Store) RecordRun(ctx context.Context, run store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// Records returns a copy of the appended records, in append order.
func (s *Store) Records() []store.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Record(nil), s.records...)
}

// Runs returns a copy of the recorded run summaries.
func (s *Store) Runs() []store.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Run(nil), s.runs...)
}
