package normalize

import (
	"strings"
	"time"
)

// Common date formats found on hospital bills and policy schedules. Numeric
// slash dates are read day-first.
var dateFormats = []string{
	"2006-01-02",
	"02-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// ParseDate attempts to parse a date string in multiple common formats.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, fmt := range dateFormats {
		if t, err := time.Parse(fmt, s); err == nil {
			return &t
		}
	}
	return nil
}
