package dataprocessing

import (
	"math"
	"strconv"
	"strings"
)

// missingSentinels are the placeholder strings statistical exports use for
// suppressed or unavailable values
var missingSentinels = map[string]bool{
	"-":     true,
	"**":    true,
	"***":   true,
	"*****": true,
	"(x)":   true,
	"n":     true,
	"na":    true,
	"n/a":   true,
}

// IsMissing reports whether raw is blank or a missing-data sentinel
func IsMissing(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	return s == "" || missingSentinels[s]
}

// ParseNumber coerces a cell to a float. Sentinels, blanks and anything
// unparseable are missing, never zero. With stripPercent a trailing "%" is
// removed first, so "14.2%" is 14.2.
func ParseNumber(raw string, stripPercent bool) (float64, bool) {
	if IsMissing(raw) {
		return 0, false
	}

	s := strings.TrimSpace(raw)
	if stripPercent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseInteger is ParseNumber for whole-number sources; fractional values
// and values outside the int64 range are rejected
func ParseInteger(raw string) (int64, bool) {
	v, ok := ParseNumber(raw, false)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	// math.MaxInt64 rounds up to 2^63 as a float64
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// ParseYear accepts whole four-digit numbers, including spreadsheet floats
// such as "2021.0"
func ParseYear(raw string) (int, bool) {
	v, ok := ParseInteger(raw)
	if !ok || v < 1000 || v > 9999 {
		return 0, false
	}
	return int(v), true
}
