package rules

import (
	"errors"
	"fmt"
	"strings"
)

// RejectReason classifies a validation rejection.
type RejectReason string

const (
	ReasonBadFormat        RejectReason = "bad_format"
	ReasonDuplicateSibling RejectReason = "duplicate_sibling"
	ReasonNotInAuthority   RejectReason = "not_in_authority"
	ReasonDepthExceeded    RejectReason = "depth_exceeded"
)

// Rejection is a recoverable validation failure. It causes no state
// change; callers surface it inline.
type Rejection struct {
	Reason RejectReason
	Code   string
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail != "" {
		return fmt.Sprintf("code %q rejected: %s", r.Code, r.Detail)
	}
	return fmt.Sprintf("code %q rejected: %s", r.Code, r.Reason)
}

// AsRejection unwraps err into a Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// LoadError reports a malformed rules workbook. The load aborts as a
// whole; a partial profile never becomes active.
type LoadError struct {
	Path    string
	Profile string
	Sheet   string
	Row     int // 1-based spreadsheet row, 0 when not row-specific
	Reason  string
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rules workbook %s", e.Path)
	if e.Profile != "" {
		fmt.Fprintf(&b, ": profile %q", e.Profile)
	}
	if e.Sheet != "" {
		fmt.Fprintf(&b, ": sheet %q", e.Sheet)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	return b.String()
}

// MissingSheetsError reports a workbook that matches neither supported
// format.
type MissingSheetsError struct {
	Path     string
	Expected []string
	Found    []string
}

func (e *MissingSheetsError) Error() string {
	return fmt.Sprintf("rules workbook %s: expected sheets %s, found %s",
		e.Path, strings.Join(e.Expected, ", "), strings.Join(e.Found, ", "))
}
