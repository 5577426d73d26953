package shopping

import (
	"fmt"
	"strings"
	"time"
)

// isoLayout matches the millisecond ISO-8601 form the server emits.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

var inputLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02.01.2006",
}

// FormatPlannedDate converts user input into an ISO timestamp in UTC. A bare
// calendar date becomes midnight UTC of that day. Empty input stays empty.
func FormatPlannedDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(isoLayout), nil
}

// ParseDate accepts a calendar date or a timestamp; zone-less values are UTC.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// DisplayDate renders a server date as YYYY-MM-DD, or "" when absent.
func DisplayDate(value string) string {
	if value == "" {
		return ""
	}
	t, err := ParseDate(value)
	if err != nil {
		return value
	}
	return t.UTC().Format("2006-01-02")
}
