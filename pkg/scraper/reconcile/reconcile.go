// Package reconcile reassembles the per-page table fragments returned by the
// PDF extraction engine into one coherent table per document.
//
// The input is unreliable in specific, recurring ways: a table that continues
// onto the next page loses its header and the engine mistakes the first data
// row for one; a table too wide for the page is split into left and right
// halves printed on consecutive pages; and on some layouts the header parse
// lands one column to the left of the data. Reconcile repairs each of these
// in turn and accumulates the surviving rows.
package reconcile

import (
	"log"
	"regexp"
	"strings"
)

// Fragment is one page-level table as emitted by the extraction engine.
// Labels may be empty, duplicated or missing entirely, and rows may be
// ragged; Reconcile squares everything up before using it.
type Fragment struct {
	Columns []string
	Rows    [][]string
}

// Table is the reconciled result for one document. Every row has exactly
// as many cells as there are column labels.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Col returns the index of the column with the given label.
func (t Table) Col(label string) (int, bool) {
	for i, c := range t.Columns {
		if c == label {
			return i, true
		}
	}
	return 0, false
}

// String renders the table for diagnostics.
func (t Table) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, " | "))
	for _, row := range t.Rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}

// headerKeywords identify a correctly parsed header row. A fragment whose
// labels contain none of these is assumed to have its header buried in the
// data rows.
var headerKeywords = []string{"Decision Date", "Lodged", "Decision", "DESCRIPTION"}

// shiftKeywords flag a header parse that landed one column to the left: when
// several of them pile up in the first label, the labels belong one position
// to the right.
var shiftKeywords = []string{"decision", "lodged", "description", "address"}

// datePattern matches a date-like label, the signature of a continuation
// page whose first data row was mistaken for the header.
var datePattern = regexp.MustCompile(`^\s*\d+/\d+/\d+\s*$`)

// columnLabelAliases folds historically different spellings of the same
// header onto one canonical label, so the mapper does not track layout
// generations.
var columnLabelAliases = map[string]string{
	"DATE LODGED":     "LODGED",
	"App Year/Number": "Application Number",
}

// minFullWidth is the narrowest column count a standalone fragment can have;
// anything narrower is assumed to be one half of a page-split table.
const minFullWidth = 5

// Reconcile merges the ordered page fragments of one document into a single
// table. Fragments whose columns still disagree with the accumulated table
// after repair are dropped with a log line; the document proceeds with
// whatever was aggregated.
func Reconcile(frags []Fragment) Table {
	var final Table
	var pending *Fragment

	for i := range frags {
		frag := clean(frags[i])
		if len(frag.Rows) == 0 {
			continue
		}

		// Continuation: same width as the accumulated table, no empty
		// labels, and a date where the first label should be. The "header"
		// is really the first data row of the previous table.
		if len(final.Columns) > 0 &&
			len(frag.Columns) == len(final.Columns) &&
			!anyEmpty(frag.Columns) &&
			datePattern.MatchString(frag.Columns[0]) {
			frag.Rows = append([][]string{frag.Columns}, frag.Rows...)
			frag.Columns = append([]string(nil), final.Columns...)
		}

		// Header promotion: keep lifting the first data row into the labels
		// until a recognizable header appears or the fragment runs out.
		for len(frag.Rows) > 0 && !hasHeaderKeyword(frag.Columns) {
			frag.Columns = frag.Rows[0]
			frag.Rows = frag.Rows[1:]
		}

		// Column-split repair: the previous fragment was the left half of a
		// page-split table; this one carries the remaining columns.
		if pending != nil {
			frag = mergeSplit(*pending, frag)
			pending = nil
		}

		// Lookahead wrap prediction: a fragment wider than the next one is
		// itself suspected of spilling its right half onto the next page.
		// Heuristic; rare layouts can misclassify.
		wrap := i+1 < len(frags) && len(frag.Columns) > len(frags[i+1].Columns)

		frag = repairShift(frag)

		if len(frag.Rows) == 0 {
			continue
		}
		if wrap || len(frag.Columns) < minFullWidth {
			held := frag
			pending = &held
			continue
		}

		switch {
		case len(final.Columns) == 0:
			final.Columns = frag.Columns
			final.Rows = frag.Rows
		case columnsEqual(final.Columns, frag.Columns):
			final.Rows = append(final.Rows, frag.Rows...)
		default:
			log.Printf("column mismatch: dropping fragment with columns %v (table has %v)", frag.Columns, final.Columns)
		}
		pending = nil
	}

	if pending != nil {
		log.Printf("dropping trailing partial fragment with columns %v", pending.Columns)
	}

	final.Columns = canonicalizeLabels(final.Columns)
	return final
}

// clean squares up a raw fragment: rows are padded to a uniform width,
// missing cells become the empty string, and columns that are empty in every
// row and carry no label are dropped. A labeled column with empty cells is
// kept; repairShift needs to see it.
func clean(f Fragment) Fragment {
	width := len(f.Columns)
	for _, row := range f.Rows {
		if len(row) > width {
			width = len(row)
		}
	}

	out := Fragment{Columns: pad(f.Columns, width)}
	for _, row := range f.Rows {
		out.Rows = append(out.Rows, pad(row, width))
	}

	keep := make([]bool, width)
	for j := 0; j < width; j++ {
		if out.Columns[j] != "" {
			keep[j] = true
			continue
		}
		for _, row := range out.Rows {
			if row[j] != "" {
				keep[j] = true
				break
			}
		}
	}

	var cols []string
	for j := 0; j < width; j++ {
		if keep[j] {
			cols = append(cols, out.Columns[j])
		}
	}
	rows := make([][]string, len(out.Rows))
	for r, row := range out.Rows {
		kept := make([]string, 0, len(cols))
		for j := 0; j < width; j++ {
			if keep[j] {
				kept = append(kept, row[j])
			}
		}
		rows[r] = kept
	}

	return Fragment{Columns: cols, Rows: rows}
}

// mergeSplit joins the left and right halves of a page-split table by row
// position. Labels are exactly what is being repaired here, so matching by
// label would be circular. A column that ends up with an empty label has its
// cells folded into the column before it.
func mergeSplit(left, right Fragment) Fragment {
	n := len(left.Rows)
	if len(right.Rows) > n {
		n = len(right.Rows)
	}

	merged := Fragment{
		Columns: append(append([]string(nil), left.Columns...), right.Columns...),
	}
	for r := 0; r < n; r++ {
		var row []string
		row = append(row, rowAt(left, r)...)
		row = append(row, rowAt(right, r)...)
		merged.Rows = append(merged.Rows, row)
	}

	for j := len(merged.Columns) - 1; j > 0; j-- {
		if merged.Columns[j] != "" {
			continue
		}
		merged.Columns = append(merged.Columns[:j], merged.Columns[j+1:]...)
		for r := range merged.Rows {
			merged.Rows[r][j-1] += merged.Rows[r][j]
			merged.Rows[r] = append(merged.Rows[r][:j], merged.Rows[r][j+1:]...)
		}
	}
	return merged
}

// repairShift detects a header parse that landed one column left of the
// data: several header keywords crowd into the first label and the last
// column holds nothing. Shifting the labels left by one and discarding the
// empty last column realigns them.
func repairShift(f Fragment) Fragment {
	if len(f.Columns) < 2 || len(f.Rows) == 0 {
		return f
	}

	first := strings.ToLower(f.Columns[0])
	hits := 0
	for _, kw := range shiftKeywords {
		if strings.Contains(first, kw) {
			hits++
		}
	}
	if hits <= 2 {
		return f
	}
	last := len(f.Columns) - 1
	for _, row := range f.Rows {
		if row[last] != "" {
			return f
		}
	}

	f.Columns = f.Columns[1:]
	for r := range f.Rows {
		f.Rows[r] = f.Rows[r][:last]
	}
	return f
}

func canonicalizeLabels(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		c = strings.ReplaceAll(c, "\r", " ")
		if alias, ok := columnLabelAliases[c]; ok {
			c = alias
		}
		out[i] = c
	}
	return out
}

func hasHeaderKeyword(cols []string) bool {
	for _, c := range cols {
		for _, kw := range headerKeywords {
			if strings.Contains(c, kw) {
				return true
			}
		}
	}
	return false
}

func anyEmpty(ss []string) bool {
	for _, s := range ss {
		if s == "" {
			return true
		}
	}
	return false
}

func columnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func pad(ss []string, width int) []string {
	out := make([]string, width)
	copy(out, ss)
	return out
}

func rowAt(f Fragment, r int) []string {
	if r < len(f.Rows) {
		return f.Rows[r]
	}
	return make([]string, len(f.Columns))
}
