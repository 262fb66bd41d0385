package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw          string
		stripPercent bool
		want         float64
		wantOK       bool
	}{
		{"14.2%", true, 14.2, true},
		{" 14.2 % ", true, 14.2, true},
		{"14.2%", false, 0, false},
		{"52000", false, 52000, true},
		{"52,000", false, 52000, true},
		{"0", false, 0, true},
		{"-3.5", false, -3.5, true},
		{"-", false, 0, false},
		{"**", false, 0, false},
		{"***", true, 0, false},
		{"(X)", false, 0, false},
		{"N/A", false, 0, false},
		{"", false, 0, false},
		{"   ", true, 0, false},
		{"NaN", false, 0, false},
		{"Inf", false, 0, false},
		{"n.d.", false, 0, false},
		{"1.2e3", false, 1200, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseNumber(tt.raw, tt.stripPercent)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInteger(t *testing.T) {
	v, ok := ParseInteger("66405")
	assert.True(t, ok)
	assert.Equal(t, int64(66405), v)

	v, ok = ParseInteger("66405.0")
	assert.True(t, ok)
	assert.Equal(t, int64(66405), v)

	_, ok = ParseInteger("66405.5")
	assert.False(t, ok)

	_, ok = ParseInteger("-")
	assert.False(t, ok)

	for _, raw := range []string{"1e19", "9223372036854775808", "-1e19", "-9.3e18"} {
		_, ok = ParseInteger(raw)
		assert.False(t, ok, raw)
	}

	v, ok = ParseInteger("-9223372036854775808")
	assert.True(t, ok)
	assert.Equal(t, int64(math.MinInt64), v)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"2021", 2021, true},
		{"2021.0", 2021, true},
		{"2021.5", 0, false},
		{"2019-20", 0, false},
		{"21", 0, false},
		{"20210", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseYear(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"-", "**", "*****", "(x)", "NA", " n/a ", ""} {
		assert.True(t, IsMissing(s), s)
	}
	for _, s := range []string{"0", "--5", "12"} {
		assert.False(t, IsMissing(s), s)
	}
}
