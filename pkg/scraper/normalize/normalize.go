// Package normalize cleans individual cell values extracted from council
// PDFs. The extraction engine preserves in-cell line breaks as carriage
// returns, and dates and addresses arrive in the loose formats the council
// prints them in.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/stanle/cityperthscraper/pkg/scraper/internalerr"
)

// lineBreak is the in-cell line break marker emitted by the extraction engine.
const lineBreak = "\r"

var waTail = regexp.MustCompile(`\s+WA\s+(6\d{3})$`)

// Date parses a D/M/Y cell. Two-digit years are taken as 2000s, and
// whitespace around the slashes is tolerated. Anything that does not split
// into exactly three numeric fields is a FormatError.
func Date(raw string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return time.Time{}, &internalerr.FormatError{Detail: fmt.Sprintf("malformed date %q", raw)}
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, &internalerr.FormatError{Detail: fmt.Sprintf("malformed date %q", raw)}
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	if year < 100 {
		year += 2000
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// Address rewrites a two-line address cell into a comma-delimited form
// suitable for downstream address parsing. Line breaks become ", ", and a
// trailing "<suburb> WA <postcode>" is split into ", WA, <postcode>".
func Address(raw string) string {
	s := strings.ReplaceAll(raw, lineBreak, ", ")
	return waTail.ReplaceAllString(s, ", WA, $1")
}

// Description flattens a multi-line description cell into a single line.
func Description(raw string) string {
	return strings.ReplaceAll(raw, lineBreak, " ")
}
