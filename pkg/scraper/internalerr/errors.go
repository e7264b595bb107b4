package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrTransientFetch = errors.New("transient fetch failure")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// FormatError reports a structural problem in an extracted table: a date or
// value that does not parse, or a required column that is missing. It aborts
// the run, since a recurring format failure usually means the extraction
// engine regressed and silent data loss would follow.
type FormatError struct {
	Title  string // document title, filled in by the driver
	Detail string
	Dump   string // rendering of the offending table
}

func (e *FormatError) Error() string {
	msg := "format error"
	if e.Title != "" {
		msg = fmt.Sprintf("%s in %q", msg, e.Title)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Dump != "" {
		msg += "\noffending table:\n" + e.Dump
	}
	return msg
}
