package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Date is an optional calendar date. The zero value means "absent":
// unset due dates and receipt dates stay zero, and unparseable input
// degrades to zero instead of raising.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts the document's YYYY-MM-DD form with an RFC 3339
// fallback. Anything else yields the absent date.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day())
	}
	return Date{}
}

// IsEmpty reports whether the date is absent.
func (d Date) IsEmpty() bool { return d.IsZero() }

// String returns YYYY-MM-DD, or "" when absent. This is the form the
// persisted document and the CSV report carry.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Display renders the date as "02 Jan 2006". Absent dates render as
// an em-dash placeholder.
func (d Date) Display() string {
	if d.IsZero() {
		return "—"
	}
	return d.Format("02 Jan 2006")
}

// DaysUntil returns the signed count of whole calendar days from now
// to the date: 0 for later today, positive for future, negative for
// past. ok is false when the date is absent. Both operands are
// normalized to midnight so time of day never shifts the count.
func (d Date) DaysUntil(now time.Time) (days int, ok bool) {
	if d.IsZero() {
		return 0, false
	}
	y, m, dd := d.Date()
	target := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	ny, nm, nd := now.Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(target.Sub(today) / (24 * time.Hour)), true
}

// Before reports whether d sorts earlier than other; absent dates
// sort first.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON tolerates empty strings, nulls and malformed input,
// all of which load as the absent date.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		d.Time = time.Time{}
		return nil
	}
	*d = ParseDate(s)
	return nil
}
