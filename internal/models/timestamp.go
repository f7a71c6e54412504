package models

import (
	"fmt"
	"time"
)

// LocalTimestampLayout is the zone-less layout the backend uses for fdDateTime.
const LocalTimestampLayout = "2006-01-02T15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	LocalTimestampLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses backend timestamps with or without zone and fraction.
// Zone-less values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// FormatTimestamp renders t in LocalTimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(LocalTimestampLayout)
}
