package utils

import (
	"fmt"
	"strings"
	"time"

	"ASTROTRACKER_BACK-END/internal/errs"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD value. RFC 3339 timestamps are accepted and
// truncated to their UTC date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if d, err := time.Parse(DateLayout, value); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return TruncateDay(ts), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", errs.ErrInvalidInput, value)
}

// TruncateDay returns midnight UTC of t's UTC date
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
