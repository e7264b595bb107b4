// Package scraper drives the ingestion of council planning PDFs: discover
// the published documents, reconcile each one's extracted table fragments,
// map the rows into the canonical schema, and persist them exactly once per
// document title.
package scraper

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stanle/cityperthscraper/pkg/scraper/internalerr"
	"github.com/stanle/cityperthscraper/pkg/scraper/reconcile"
	"github.com/stanle/cityperthscraper/pkg/scraper/schema"
	"github.com/stanle/cityperthscraper/pkg/scraper/store"
)

// Document is one discovered PDF. The title doubles as the document's
// identity in the processed ledger, and as the classification hint for
// layout selection.
type Document struct {
	Title string
	URL   string
}

// Discoverer enumerates the documents published on the council listing page,
// in page order.
type Discoverer interface {
	Discover(ctx context.Context) ([]Document, error)
}

// Extractor returns the ordered per-page table fragments of a PDF. A
// retrieval failure surfaces as internalerr.ErrTransientFetch, which skips
// the document for this run without marking it processed.
type Extractor interface {
	Tables(ctx context.Context, pdfURL string) ([]reconcile.Fragment, error)
}

// Scraper wires the collaborators together. Documents are processed strictly
// one at a time in listing order.
type Scraper struct {
	Store     store.Store
	Discovery Discoverer
	Extract   Extractor

	// Now stamps date_scraped; nil means time.Now.
	Now func() time.Time
}

// Summary reports what one run did.
type Summary struct {
	RunID     string
	Documents int // documents newly processed this run
	Records   int
	Skipped   int // already in the ledger
}

// Run processes every discovered document once. A document already in the
// ledger is skipped; a transient fetch failure is logged and retried on the
// next run; an empty or unrecognized document is marked processed with zero
// records so it is never fetched again. A FormatError aborts the run.
func (s *Scraper) Run(ctx context.Context) (Summary, error) {
	now := s.Now
	if now == nil {
		now = time.Now
	}

	sum := Summary{RunID: ulid.Make().String()}
	started := now()

	docs, err := s.Discovery.Discover(ctx)
	if err != nil {
		return sum, err
	}

	for _, doc := range docs {
		done, err := s.Store.IsProcessed(ctx, doc.Title)
		if err != nil {
			return sum, err
		}
		if done {
			log.Printf("skipping already processed %q", doc.Title)
			sum.Skipped++
			continue
		}

		frags, err := s.Extract.Tables(ctx, doc.URL)
		if errors.Is(err, internalerr.ErrTransientFetch) {
			log.Printf("skipping %q this run: %v", doc.Title, err)
			continue
		}
		if err != nil {
			return sum, err
		}

		table := reconcile.Reconcile(frags)

		var recs []store.Record
		if len(table.Rows) == 0 {
			log.Printf("no usable rows in %q", doc.Title)
		} else if layout, ok := schema.Classify(doc.Title, table); ok {
			recs, err = layout.Records(table, doc.URL, now())
			if err != nil {
				var ferr *internalerr.FormatError
				if errors.As(err, &ferr) {
					ferr.Title = doc.Title
				}
				return sum, err
			}
		} else {
			log.Printf("ignoring unknown pdf %q", doc.Title)
		}

		if len(recs) > 0 {
			if err := s.Store.AppendRecords(ctx, recs); err != nil {
				return sum, err
			}
		}
		// Marked even for zero records: a malformed document must not be
		// refetched on every run.
		if err := s.Store.MarkProcessed(ctx, doc.Title); err != nil {
			return sum, err
		}

		log.Printf("processed %q: %d records", doc.Title, len(recs))
		sum.Documents++
		sum.Records += len(recs)
	}

	if err := s.Store.RecordRun(ctx, store.Run{
		ID:        sum.RunID,
		StartedAt: started,
		Documents: sum.Documents,
		Records:   sum.Records,
	}); err != nil {
		return sum, err
	}
	return sum, nil
}
