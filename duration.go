package jobstats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errDurationFormat = errors.New("unrecognized duration format")
	errNotANumber     = errors.New("not an unsigned integer")
	errOutOfRange     = errors.New("value out of range")
)

// maxDigits bounds every clock component, which keeps the day and hour
// totals far from overflow.
const maxDigits = 9

// ParseDuration parses the elapsed and CPU time encodings printed by sacct and
// returns the total in seconds. Three forms are recognized, checked in this
// order:
//
//	D-HH:MM:SS     days present
//	MM:SS.ffffff   under an hour, fractional seconds
//	HH:MM:SS       or MM:SS
//
// Anything else is a *ParseError.
func ParseDuration(s string) (float64, error) {
	fail := func(err error) (float64, error) {
		return 0, &ParseError{Field: "duration", Value: s, Err: err}
	}

	if daysStr, rest, found := strings.Cut(s, "-"); found {
		days, err := parseDigits(daysStr)
		if err != nil {
			return fail(fmt.Errorf("bad day count: %w", err))
		}
		h, m, sec, err := parseClock(rest, 3)
		if err != nil {
			return fail(err)
		}
		if h >= 24 {
			return fail(fmt.Errorf("hours out of range in day form: %d", h))
		}
		return float64(days)*86400 + float64(h*3600+m*60+sec), nil
	}

	if clock, frac, found := strings.Cut(s, "."); found {
		_, m, sec, err := parseClock(clock, 2)
		if err != nil {
			return fail(err)
		}
		micros, err := parseMicros(frac)
		if err != nil {
			return fail(err)
		}
		return float64(m*60+sec) + float64(micros)/1e6, nil
	}

	h, m, sec, err := parseClock(s, 0)
	if err != nil {
		return fail(err)
	}
	return float64(h)*3600 + float64(m*60+sec), nil
}

// parseClock splits a colon separated clock. parts is the exact number of
// components required, or 0 to accept both MM:SS and HH:MM:SS.
func parseClock(s string, parts int) (h, m, sec int, err error) {
	fields := strings.Split(s, ":")
	if parts != 0 && len(fields) != parts {
		return 0, 0, 0, errDurationFormat
	}
	if len(fields) != 2 && len(fields) != 3 {
		return 0, 0, 0, errDurationFormat
	}
	values := make([]int, len(fields))
	for i, f := range fields {
		values[i], err = parseDigits(f)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	if len(values) == 3 {
		h, values = values[0], values[1:]
	}
	m, sec = values[0], values[1]
	if m >= 60 || sec >= 60 {
		return 0, 0, 0, fmt.Errorf("minutes or seconds out of range: %s", s)
	}
	return h, m, sec, nil
}

// parseMicros reads a fraction of up to six digits as microseconds, so ".5"
// is 500000.
func parseMicros(frac string) (int, error) {
	if len(frac) == 0 || len(frac) > 6 {
		return 0, errDurationFormat
	}
	n, err := parseDigits(frac)
	if err != nil {
		return 0, err
	}
	for i := len(frac); i < 6; i++ {
		n *= 10
	}
	return n, nil
}

// parseDigits is strconv.Atoi without the sign handling.
func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, errNotANumber
	}
	if len(s) > maxDigits {
		return 0, errOutOfRange
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotANumber
		}
	}
	return strconv.Atoi(s)
}
