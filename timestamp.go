package jobstats

import (
	"time"
)

// TimestampLayout is how sacct prints Start and End: local time without an
// offset.
const TimestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp reads a sacct timestamp in loc. Placeholders such as
// "Unknown" or "None" are errors.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimestampLayout, s, loc)
	if err != nil {
		return time.Time{}, &ParseError{Field: "timestamp", Value: s, Err: err}
	}
	return t, nil
}
