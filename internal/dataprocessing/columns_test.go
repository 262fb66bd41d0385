package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name     string
		wantYear int
		wantOK   bool
	}{
		{"report_2021_final.csv", 2021, true},
		{"report.csv", 0, false},
		{"Data_2020.csv", 2020, true},
		{"ACSST1Y2023.S1903-Data.csv", 2023, true},
		{"ACSST5Y2019.S2301-Data.csv", 2019, true},
		{"batch_202101_2019.csv", 2019, true},
		{"v1_12345.csv", 0, false},
		{"2018-2019.csv", 2018, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, ok := ExtractYear(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}

func TestSelectColumn(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		keywords []string
		exclude  []string
		want     string
		wantOK   bool
	}{
		{
			name:     "year keyword",
			columns:  []string{"reporting_year", "percent_rate"},
			keywords: []string{"year"},
			want:     "reporting_year",
			wantOK:   true,
		},
		{
			name:     "value keywords regardless of declaration order",
			columns:  []string{"percent_rate", "reporting_year"},
			keywords: []string{"rate", "percent"},
			want:     "percent_rate",
			wantOK:   true,
		},
		{
			name:     "first match in declaration order wins",
			columns:  []string{"fiscal_year", "year"},
			keywords: []string{"year"},
			want:     "fiscal_year",
			wantOK:   true,
		},
		{
			name:     "column order beats keyword order",
			columns:  []string{"average_families", "persons"},
			keywords: []string{"persons", "average"},
			want:     "average_families",
			wantOK:   true,
		},
		{
			name:     "excluded column is skipped",
			columns:  []string{"school_year", "graduation_rate"},
			keywords: []string{"year", "rate"},
			exclude:  []string{"school_year"},
			want:     "graduation_rate",
			wantOK:   true,
		},
		{
			name:     "keywords are lower-cased",
			columns:  []string{"snap_persons"},
			keywords: []string{"SNAP"},
			want:     "snap_persons",
			wantOK:   true,
		},
		{
			name:     "no match",
			columns:  []string{"county", "total"},
			keywords: []string{"year"},
		},
		{
			name:     "blank keyword never matches",
			columns:  []string{"county"},
			keywords: []string{"", "  "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectColumn(&Table{Columns: tt.columns}, tt.keywords, tt.exclude...)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := SelectColumn(nil, []string{"year"})
	assert.False(t, ok)
}
