package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stanle/cityperthscraper/pkg/scraper/internalerr"
	"github.com/stanle/cityperthscraper/pkg/scraper/reconcile"
)

const infoURL = "https://example.org/march-2021.pdf"

var scraped = time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)

func lodgedTable() reconcile.Table {
	return reconcile.Table{
		Columns: []string{"LODGED", "ADDRESS", "DESCRIPTION", "VALUE", "APPLICATION NUMBER"},
		Rows: [][]string{
			{"1/3/2021", "89 Fairway\rCRAWLEY WA  6009", "New carport", "15000", "DA123/21"},
		},
	}
}

func decisionTable() reconcile.Table {
	return reconcile.Table{
		Columns: []string{"Decision Date", "Primary Property Address", "Application Description", "Est Value", "Decision", "Application Number"},
		Rows: [][]string{
			{"5/3/2021", "12 Hay Street\rPERTH WA 6000", "Demolish\rdwelling", "30000", "Approved", "2021/55"},
		},
	}
}

func TestClassifyLodged(t *testing.T) {
	layout, ok := Classify("Applications Lodged March 2021", lodgedTable())
	if !ok || layout.Name != "lodged" {
		t.Fatalf("Classify = %q, %v; want lodged", layout.Name, ok)
	}
}

func TestClassifyLodgedWithDecisionColumn(t *testing.T) {
	// The newer lodgement reports carry a decision column and map like the
	// other decision documents.
	layout, ok := Classify("Applications Lodged March 2021", decisionTable())
	if !ok || layout.Name != "decision" {
		t.Fatalf("Classify = %q, %v; want decision", layout.Name, ok)
	}
}

func TestClassifyDecisionTitles(t *testing.T) {
	for _, title := range []string{
		"Building Permits Issued April 2021",
		"DA Approved May 2021",
		"Demolition Licenses Approved June 2021",
	} {
		layout, ok := Classify(title, decisionTable())
		if !ok || layout.Name != "decision" {
			t.Errorf("Classify(%q) = %q, %v; want decision", title, layout.Name, ok)
		}
	}
}

func TestClassifyUnknownTitle(t *testing.T) {
	if _, ok := Classify("Council Meeting Minutes", lodgedTable()); ok {
		t.Error("unknown title should not classify")
	}
}

func TestLodgedRecords(t *testing.T) {
	layout, ok := Classify("Applications Lodged March 2021", lodgedTable())
	if !ok {
		t.Fatal("expected lodged layout")
	}

	recs, err := layout.Records(lodgedTable(), infoURL, scraped)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}

	r := recs[0]
	if want := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC); !r.DateReceived.Equal(want) {
		t.Errorf("DateReceived = %v, want %v", r.DateReceived, want)
	}
	if r.Address != "89 Fairway, CRAWLEY, WA, 6009" {
		t.Errorf("Address = %q", r.Address)
	}
	if r.Description != "Application Lodged New carport, Value: 15000" {
		t.Errorf("Description = %q", r.Description)
	}
	if r.CouncilReference != "DA123/21" {
		t.Errorf("CouncilReference = %q", r.CouncilReference)
	}
	if r.InfoURL != infoURL {
		t.Errorf("InfoURL = %q", r.InfoURL)
	}
	if !r.DateScraped.Equal(scraped) {
		t.Errorf("DateScraped = %v", r.DateScraped)
	}
}

func TestDecisionRecords(t *testing.T) {
	layout, ok := Classify("Building Permits Issued April 2021", decisionTable())
	if !ok {
		t.Fatal("expected decision layout")
	}

	recs, err := layout.Records(decisionTable(), infoURL, scraped)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}

	r := recs[0]
	if r.Description != "Demolish dwelling, Value: 30000, Decision: Approved" {
		t.Errorf("Description = %q", r.Description)
	}
	if r.CouncilReference != "2021/55" {
		t.Errorf("CouncilReference = %q", r.CouncilReference)
	}
}

func TestDecisionRecordsEstValueAbsent(t *testing.T) {
	tbl := reconcile.Table{
		Columns: []string{"Decision Date", "Primary Property Address", "Application Description", "Decision", "Application Number"},
		Rows: [][]string{
			{"5/3/2021", "12 Hay Street", "Demolish dwelling", "Approved", "2021/55"},
		},
	}

	layout, ok := Classify("Building Permits Issued April 2021", tbl)
	if !ok {
		t.Fatal("expected decision layout")
	}
	recs, err := layout.Records(tbl, infoURL, scraped)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Description != "Demolish dwelling, Value: n/a, Decision: Approved" {
		t.Errorf("Description = %q", recs[0].Description)
	}
}

func TestRecordsMissingReferenceColumn(t *testing.T) {
	tbl := reconcile.Table{
		Columns: []string{"LODGED", "ADDRESS", "DESCRIPTION", "VALUE"},
		Rows: [][]string{
			{"1/3/2021", "89 Fairway", "New carport", "15000"},
		},
	}

	layout, ok := Classify("Applications Lodged March 2021", tbl)
	if !ok {
		t.Fatal("expected lodged layout")
	}
	recs, err := layout.Records(tbl, infoURL, scraped)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].CouncilReference != "" {
		t.Errorf("CouncilReference = %q, want empty", recs[0].CouncilReference)
	}
}

func TestRecordsFiltersIncompleteRows(t *testing.T) {
	tbl := lodgedTable()
	tbl.Rows = append(tbl.Rows,
		[]string{"", "1 Hay St", "Shed", "5000", "DA1/21"},
		[]string{"2/3/2021", "", "Shed", "5000", "DA2/21"},
		[]string{"3/3/2021", "2 Hay St", "", "5000", "DA3/21"},
	)

	layout, _ := Classify("Applications Lodged March 2021", tbl)
	recs, err := layout.Records(tbl, infoURL, scraped)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("expected 1 record after filtering, got %d", len(recs))
	}
}

func TestRecordsMissingRequiredColumn(t *testing.T) {
	tbl := reconcile.Table{
		Columns: []string{"LODGED", "DESCRIPTION", "VALUE", "APPLICATION NUMBER"},
		Rows: [][]string{
			{"1/3/2021", "New carport", "15000", "DA123/21"},
		},
	}

	layout, _ := Classify("Applications Lodged March 2021", tbl)
	_, err := layout.Records(tbl, infoURL, scraped)
	if err == nil {
		t.Fatal("missing ADDRESS column should fail")
	}
	var ferr *internalerr.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("error %v is not a FormatError", err)
	}
	if ferr.Dump == "" {
		t.Error("FormatError should carry the offending table")
	}
}

func TestRecordsBadDateAborts(t *testing.T) {
	tbl := lodgedTable()
	tbl.Rows[0][0] = "not a date"

	layout, _ := Classify("Applications Lodged March 2021", tbl)
	_, err := layout.Records(tbl, infoURL, scraped)
	var ferr *internalerr.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if ferr.Dump == "" {
		t.Error("FormatError should carry the offending table")
	}
}

func TestRecordsEmptyTable(t *testing.T) {
	tbl := reconcile.Table{Columns: lodgedTable().Columns}
	layout, _ := Classify("Applications Lodged March 2021", tbl)
	recs, err := layout.Records(tbl, infoURL, scraped)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}
