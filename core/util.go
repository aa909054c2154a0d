package core

import (
	"strings"
	"time"
)

// DateLayout is how calendar dates are stored and exchanged (ISO-8601).
const DateLayout = "2006-01-02"

// NowFunc is mockable.
var NowFunc = time.Now

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Today returns the current calendar date at midnight UTC.
func Today() time.Time {
	return TruncateDate(NowFunc())
}

// TruncateDate drops the clock part of t, keeping its calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// FormatDate formats t as an ISO-8601 calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
