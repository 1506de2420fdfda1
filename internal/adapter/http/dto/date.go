package dto

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC3339 timestamp.
// Calendar dates are midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

// ParseEndDate parses an inclusive upper bound. A calendar date covers the
// whole day, so it resolves to the last instant before the next midnight.
func ParseEndDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, strings.TrimSpace(s)); err == nil {
		return t.Add(24*time.Hour - time.Nanosecond), nil
	}
	return ParseDate(s)
}

// Date is a JSON date in either accepted format.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler. Midnight UTC renders as a
// calendar date, anything else as RFC3339.
func (d Date) MarshalJSON() ([]byte, error) {
	t := d.Time.UTC()
	if t.Equal(t.Truncate(24 * time.Hour)) {
		return []byte(`"` + t.Format(dateLayout) + `"`), nil
	}
	return []byte(`"` + d.Time.Format(time.RFC3339) + `"`), nil
}

// Ptr returns nil for the zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
