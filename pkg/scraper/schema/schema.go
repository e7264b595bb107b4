// Package schema classifies a reconciled table against the known council
// document layouts and maps its rows into the canonical record schema.
//
// Layout-specific rules are data, not control flow: adding support for a new
// document category means appending a Layout entry, not editing the mapper.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/stanle/cityperthscraper/pkg/scraper/internalerr"
	"github.com/stanle/cityperthscraper/pkg/scraper/normalize"
	"github.com/stanle/cityperthscraper/pkg/scraper/reconcile"
	"github.com/stanle/cityperthscraper/pkg/scraper/store"
)

// decisionColumn is the label whose presence separates the two historical
// generations of the "Applications Lodged" documents.
const decisionColumn = "Decision"

// Layout describes one known document layout: a title predicate plus the
// column map into the canonical schema.
type Layout struct {
	Name string

	// TitleAny matches when the document title contains any entry.
	TitleAny []string
	// ForbidDecision rejects tables that carry a decision column.
	ForbidDecision bool

	// Source columns. Date, address and description are required; their
	// absence from the table is a FormatError. A missing reference column
	// yields records without a council reference.
	DateColumn        string
	AddressColumn     string
	DescriptionColumn string
	ReferenceColumn   string

	// ValueColumn feeds the ", Value: ..." suffix of the description. When
	// ValueOptional is set, a missing column or empty cell becomes "n/a";
	// otherwise a missing column is a FormatError.
	ValueColumn   string
	ValueOptional bool

	// DecisionColumn, when set, appends ", Decision: ..." to the
	// description and is required to be present.
	DecisionColumn string

	// DescriptionPrefix is prepended verbatim to every description.
	DescriptionPrefix string
}

// Layouts is the known layout table, checked in order; the first match wins.
var Layouts = []Layout{
	{
		Name:              "lodged",
		TitleAny:          []string{"Applications Lodged"},
		ForbidDecision:    true,
		DateColumn:        "LODGED",
		AddressColumn:     "ADDRESS",
		DescriptionColumn: "DESCRIPTION",
		ReferenceColumn:   "APPLICATION NUMBER",
		ValueColumn:       "VALUE",
		DescriptionPrefix: "Application Lodged ",
	},
	{
		// "Applications Lodged" with a decision column is the newer
		// generation that folded the decision into the lodgement report;
		// it maps like the other decision documents.
		Name:              "decision",
		TitleAny:          []string{"Building Permits", "DA Approved", "Applications Lodged", "Demolition Licenses Approved"},
		DateColumn:        "Decision Date",
		AddressColumn:     "Primary Property Address",
		DescriptionColumn: "Application Description",
		ReferenceColumn:   "Application Number",
		ValueColumn:       "Est Value",
		ValueOptional:     true,
		DecisionColumn:    decisionColumn,
	},
}

// Classify returns the first layout matching the document title and the
// reconciled column set, or false if the document is unrecognized.
func Classify(title string, t reconcile.Table) (Layout, bool) {
	_, hasDecision := t.Col(decisionColumn)
	for _, l := range Layouts {
		if l.ForbidDecision && hasDecision {
			continue
		}
		for _, want := range l.TitleAny {
			if strings.Contains(title, want) {
				return l, true
			}
		}
	}
	return Layout{}, false
}

// Records maps the reconciled table into canonical records. Rows missing a
// required field (date, address or description) are excluded; a table left
// empty by that filter yields zero records without error. A required column
// missing from the table entirely is a FormatError.
func (l Layout) Records(t reconcile.Table, infoURL string, scraped time.Time) ([]store.Record, error) {
	dateIdx, err := l.require(t, l.DateColumn)
	if err != nil {
		return nil, err
	}
	addrIdx, err := l.require(t, l.AddressColumn)
	if err != nil {
		return nil, err
	}
	descIdx, err := l.require(t, l.DescriptionColumn)
	if err != nil {
		return nil, err
	}

	valueIdx, hasValue := t.Col(l.ValueColumn)
	if !hasValue && !l.ValueOptional {
		return nil, l.missing(t, l.ValueColumn)
	}

	decisionIdx := -1
	if l.DecisionColumn != "" {
		idx, ok := t.Col(l.DecisionColumn)
		if !ok {
			return nil, l.missing(t, l.DecisionColumn)
		}
		decisionIdx = idx
	}

	refIdx, hasRef := t.Col(l.ReferenceColumn)

	var recs []store.Record
	for _, row := range t.Rows {
		if row[dateIdx] == "" || row[addrIdx] == "" || row[descIdx] == "" {
			continue
		}

		received, err := normalize.Date(row[dateIdx])
		if err != nil {
			if ferr, ok := err.(*internalerr.FormatError); ok {
				ferr.Dump = t.String()
			}
			return nil, err
		}

		value := ""
		if hasValue {
			value = row[valueIdx]
		}
		if value == "" && l.ValueOptional {
			value = "n/a"
		}

		desc := l.DescriptionPrefix + normalize.Description(row[descIdx]) + ", Value: " + value
		if decisionIdx >= 0 {
			desc += ", Decision: " + row[decisionIdx]
		}

		ref := ""
		if hasRef {
			ref = row[refIdx]
		}

		recs = append(recs, store.Record{
			DateReceived:     received,
			Address:          normalize.Address(row[addrIdx]),
			Description:      desc,
			CouncilReference: ref,
			InfoURL:          infoURL,
			DateScraped:      scraped,
		})
	}
	return recs, nil
}

func (l Layout) require(t reconcile.Table, label string) (int, error) {
	idx, ok := t.Col(label)
	if !ok {
		return 0, l.missing(t, label)
	}
	return idx, nil
}

func (l Layout) missing(t reconcile.Table, label string) error {
	return &internalerr.FormatError{
		Detail: fmt.Sprintf("layout %s: column %q not found", l.Name, label),
		Dump:   t.String(),
	}
}
