package jobstats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type reqMemUnit struct {
	divisor float64
	perCPU  bool
}

// Suffixes of the ReqMem column: c is per allocated CPU, n is per job.
var reqMemUnits = map[string]reqMemUnit{
	"Gc": {divisor: 1, perCPU: true},
	"Gn": {divisor: 1},
	"Mn": {divisor: 1024},
}

// ParseReqMem converts a ReqMem value such as 4Gc, 8Gn or 2048Mn into the
// gigabytes requested by the whole job.
func ParseReqMem(in string, allocCPUs int) (float64, error) {
	s := strings.TrimSpace(in)
	firstUnit := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	if firstUnit <= 0 {
		return 0, &ParseError{Field: FieldReqMem, Value: in, Err: errors.New("missing value or unit")}
	}
	value, err := strconv.ParseFloat(s[:firstUnit], 64)
	if err != nil {
		return 0, &ParseError{Field: FieldReqMem, Value: in, Err: err}
	}
	unit, found := reqMemUnits[s[firstUnit:]]
	if !found {
		return 0, &ParseError{Field: FieldReqMem, Value: in, Err: fmt.Errorf("unknown unit %v", s[firstUnit:])}
	}
	gb := value / unit.divisor
	if unit.perCPU {
		gb *= float64(allocCPUs)
	}
	return gb, nil
}

// ParseMaxRSS converts a MaxRSS value in kilobytes (1048576K) into
// gigabytes. Top-level job rows usually leave MaxRSS empty, so anything that
// is not a kilobyte count yields 0 rather than an error.
func ParseMaxRSS(in string) float64 {
	s := strings.TrimSuffix(strings.TrimSpace(in), "K")
	kb, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return float64(kb) / 1024 / 1024
}
