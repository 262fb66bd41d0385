package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	require.NoError(t, catalog.Validate())
	assert.Len(t, catalog.Indicators, 13)
	assert.Len(t, catalog.Themes, 3)

	perYear := 0
	for _, s := range catalog.Indicators {
		if s.IsPerYear() {
			perYear++
			assert.Equal(t, CensusDataPattern, s.Pattern, s.Name)
			assert.Equal(t, DefaultGeography, s.FilterValue, s.Name)
		}
	}
	assert.Equal(t, 2, perYear)

	income, ok := catalog.Indicator("median_income")
	require.True(t, ok)
	assert.Equal(t, "median_household_income", income.Field)
	assert.Equal(t, ValueKindInteger, income.ValueKind)

	employment, ok := catalog.Indicator("employment_status")
	require.True(t, ok)
	assert.Equal(t, ValueKindFloat, employment.ValueKind)

	_, ok = catalog.Indicator("absent")
	assert.False(t, ok)
}

func TestCatalog_Validate(t *testing.T) {
	single := IndicatorSpec{Name: "a", Field: "a_value", File: "a.xlsx", YearKeywords: []string{"year"}, ValueKeywords: []string{"rate"}}
	perYear := IndicatorSpec{Name: "b", Field: "b_value", Dir: "b", Pattern: "*.csv", FilterColumn: "NAME", FilterValue: "X", ValueColumn: "V", ValueKind: ValueKindFloat}

	tests := []struct {
		name    string
		catalog Catalog
		wantErr string
	}{
		{
			name:    "valid",
			catalog: Catalog{Indicators: []IndicatorSpec{single, perYear}, Themes: []ThemeSpec{{Name: "t", Indicators: []string{"a", "b"}}}},
		},
		{
			name:    "no indicators",
			catalog: Catalog{},
			wantErr: "Indicators",
		},
		{
			name:    "duplicate indicator",
			catalog: Catalog{Indicators: []IndicatorSpec{single, single}},
			wantErr: "duplicate indicator",
		},
		{
			name: "file and dir together",
			catalog: Catalog{Indicators: []IndicatorSpec{func() IndicatorSpec {
				s := perYear
				s.File = "b.xlsx"
				return s
			}()}},
			wantErr: "mutually exclusive",
		},
		{
			name:    "neither file nor dir",
			catalog: Catalog{Indicators: []IndicatorSpec{{Name: "c", Field: "c"}}},
			wantErr: "either file or dir",
		},
		{
			name: "single file without keywords",
			catalog: Catalog{Indicators: []IndicatorSpec{func() IndicatorSpec {
				s := single
				s.ValueKeywords = nil
				return s
			}()}},
			wantErr: "value_keywords",
		},
		{
			name: "per-year without value column",
			catalog: Catalog{Indicators: []IndicatorSpec{func() IndicatorSpec {
				s := perYear
				s.ValueColumn = ""
				return s
			}()}},
			wantErr: "per-year",
		},
		{
			name: "unknown value kind",
			catalog: Catalog{Indicators: []IndicatorSpec{func() IndicatorSpec {
				s := perYear
				s.ValueKind = "decimal"
				return s
			}()}},
			wantErr: "ValueKind",
		},
		{
			name:    "theme references unknown indicator",
			catalog: Catalog{Indicators: []IndicatorSpec{single}, Themes: []ThemeSpec{{Name: "t", Indicators: []string{"zzz"}}}},
			wantErr: "unknown indicator",
		},
		{
			name:    "theme named like an indicator",
			catalog: Catalog{Indicators: []IndicatorSpec{single}, Themes: []ThemeSpec{{Name: "a", Indicators: []string{"a"}}}},
			wantErr: "duplicate output name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Run("empty path returns default", func(t *testing.T) {
		catalog, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Len(t, catalog.Indicators, len(DefaultCatalog().Indicators))
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sources.yaml")
		content := `
indicators:
  - name: graduation_rate
    field: graduation_rate_percent
    file: High school graduation rate.xlsx
    year_keywords: [year]
    value_keywords: [rate, graduation]
    strip_percent: true
themes:
  - name: education_pathway
    indicators: [graduation_rate]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		catalog, err := LoadCatalog(path)
		require.NoError(t, err)
		require.Len(t, catalog.Indicators, 1)
		assert.True(t, catalog.Indicators[0].StripPercent)
		assert.Equal(t, []string{"rate", "graduation"}, catalog.Indicators[0].ValueKeywords)
		assert.Equal(t, "graduation rate", catalog.Indicators[0].Label())
		assert.Equal(t, "education_pathway", catalog.Themes[0].Label())
	})

	t.Run("invalid catalog", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sources.yaml")
		require.NoError(t, os.WriteFile(path, []byte("indicators:\n  - name: x\n    field: y\n"), 0644))

		_, err := LoadCatalog(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
