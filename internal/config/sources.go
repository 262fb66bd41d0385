package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// ValueKind is the numeric type a per-year source value is coerced to
type ValueKind string

const (
	ValueKindInteger ValueKind = "integer"
	ValueKindFloat   ValueKind = "float"
)

// IndicatorSpec describes one data source and how its single measurement
// column is extracted.
//
// A spec is either single-file (File set: the year and value columns are
// found by keyword) or per-year (Dir and Pattern set: one file per survey
// year, the year comes from the file name and the value is read from a fixed
// column of the row whose FilterColumn contains FilterValue).
type IndicatorSpec struct {
	Name  string `yaml:"name" json:"name" validate:"required"`
	Field string `yaml:"field" json:"field" validate:"required"`
	Title string `yaml:"title" json:"title,omitempty"`

	// single-file sources
	File          string   `yaml:"file,omitempty" json:"file,omitempty"`
	YearKeywords  []string `yaml:"year_keywords,omitempty" json:"year_keywords,omitempty" validate:"dive,required"`
	ValueKeywords []string `yaml:"value_keywords,omitempty" json:"value_keywords,omitempty" validate:"dive,required"`
	StripPercent  bool     `yaml:"strip_percent,omitempty" json:"strip_percent,omitempty"`

	// per-year sources
	Dir          string    `yaml:"dir,omitempty" json:"dir,omitempty"`
	Pattern      string    `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	FilterColumn string    `yaml:"filter_column,omitempty" json:"filter_column,omitempty"`
	FilterValue  string    `yaml:"filter_value,omitempty" json:"filter_value,omitempty"`
	ValueColumn  string    `yaml:"value_column,omitempty" json:"value_column,omitempty"`
	ValueKind    ValueKind `yaml:"value_kind,omitempty" json:"value_kind,omitempty" validate:"omitempty,oneof=integer float"`
}

// IsPerYear reports whether the source is distributed as one file per year
func (s IndicatorSpec) IsPerYear() bool {
	return s.Dir != ""
}

// Label returns the human-readable name used in progress output
func (s IndicatorSpec) Label() string {
	if s.Title != "" {
		return s.Title
	}
	return strings.ReplaceAll(s.Name, "_", " ")
}

// ThemeSpec is an ordered list of indicators outer-joined on year
type ThemeSpec struct {
	Name       string   `yaml:"name" json:"name" validate:"required"`
	Title      string   `yaml:"title" json:"title,omitempty"`
	Indicators []string `yaml:"indicators" json:"indicators" validate:"required,min=1,dive,required"`
}

// Label returns the human-readable name used in the run summary
func (t ThemeSpec) Label() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// Catalog is the static set of sources and themes processed by a run
type Catalog struct {
	Indicators []IndicatorSpec `yaml:"indicators" json:"indicators" validate:"required,min=1,dive"`
	Themes     []ThemeSpec     `yaml:"themes" json:"themes" validate:"dive"`
}

// Indicator returns the spec with the given name
func (c *Catalog) Indicator(name string) (IndicatorSpec, bool) {
	for _, s := range c.Indicators {
		if s.Name == name {
			return s, true
		}
	}
	return IndicatorSpec{}, false
}

// Validate checks struct tags and the cross-field rules tags can't express
func (c *Catalog) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	names := make(map[string]bool, len(c.Indicators))
	for _, s := range c.Indicators {
		if names[s.Name] {
			return fmt.Errorf("duplicate indicator name %q", s.Name)
		}
		names[s.Name] = true

		switch {
		case s.File != "" && s.Dir != "":
			return fmt.Errorf("indicator %q: file and dir are mutually exclusive", s.Name)
		case s.IsPerYear():
			if s.Pattern == "" || s.FilterColumn == "" || s.ValueColumn == "" {
				return fmt.Errorf("indicator %q: per-year sources need pattern, filter_column and value_column", s.Name)
			}
		case s.File != "":
			if len(s.YearKeywords) == 0 || len(s.ValueKeywords) == 0 {
				return fmt.Errorf("indicator %q: year_keywords and value_keywords are required", s.Name)
			}
		default:
			return fmt.Errorf("indicator %q: either file or dir is required", s.Name)
		}
	}

	themes := make(map[string]bool, len(c.Themes))
	for _, t := range c.Themes {
		if themes[t.Name] || names[t.Name] {
			return fmt.Errorf("duplicate output name %q", t.Name)
		}
		themes[t.Name] = true
		for _, ref := range t.Indicators {
			if !names[ref] {
				return fmt.Errorf("theme %q references unknown indicator %q", t.Name, ref)
			}
		}
	}

	return nil
}

// LoadCatalog reads a catalog from a YAML file. An empty path returns the
// built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sources file: %w", err)
	}

	return &catalog, nil
}

// DefaultCatalog returns the sources and themes of the summit deliverable
func DefaultCatalog() *Catalog {
	return &Catalog{
		Indicators: []IndicatorSpec{
			{
				Name:         "median_income",
				Field:        "median_household_income",
				Title:        "median income",
				Dir:          IncomeSourceDir,
				Pattern:      CensusDataPattern,
				FilterColumn: CensusNameColumn,
				FilterValue:  DefaultGeography,
				ValueColumn:  "S1903_C03_001E",
				ValueKind:    ValueKindInteger,
			},
			{
				Name:          "childcare_costs",
				Field:         "childcare_cost_ratio_percent",
				Title:         "childcare cost",
				File:          "Child care cost-to-income ratio.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"percent", "ratio"},
				StripPercent:  true,
			},
			{
				Name:          "homeless_students",
				Field:         "homeless_students_count",
				Title:         "homeless students",
				File:          "Homeless or housing unstable students.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"student", "count", "number"},
			},
			{
				Name:          "tanf_families",
				Field:         "tanf_families_avg",
				Title:         "TANF",
				File:          "Monthly average number of families receiving TANF.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"families", "average"},
			},
			{
				Name:          "snap_participants",
				Field:         "snap_participants_avg",
				Title:         "SNAP",
				File:          "Monthly average number of persons issued food stamps (SNAP).xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"persons", "average", "snap"},
			},
			{
				Name:          "student_enrollment",
				Field:         "student_enrollment",
				Title:         "student enrollment",
				File:          "Student enrollment.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"enrollment", "student"},
			},
			{
				Name:          "graduation_rate",
				Field:         "graduation_rate_percent",
				Title:         "graduation rate",
				File:          "High school graduation rate.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"rate", "graduation"},
				StripPercent:  true,
			},
			{
				Name:          "dropout_rate",
				Field:         "dropout_rate_percent",
				Title:         "dropout rate",
				File:          "High school dropout rate.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"rate", "dropout"},
				StripPercent:  true,
			},
			{
				Name:          "suspensions",
				Field:         "suspensions_count",
				Title:         "suspension",
				File:          "Suspensions.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"suspension", "count"},
			},
			{
				Name:          "child_abuse_rate",
				Field:         "child_abuse_rate_per_1000",
				Title:         "child abuse rate",
				File:          "Child abuse and neglect rate per 1,000 children under age 18.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"rate", "abuse"},
			},
			{
				Name:          "juvenile_cases",
				Field:         "juvenile_cases_total",
				Title:         "juvenile case",
				File:          "Juvenile case filings by type.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"case", "filing", "total"},
			},
			{
				Name:          "collaborative_care",
				Field:         "collaborative_care_youth",
				Title:         "collaborative care",
				File:          "Youth in collaborative care.xlsx",
				YearKeywords:  []string{"year"},
				ValueKeywords: []string{"youth", "care", "count"},
			},
			{
				Name:         "employment_status",
				Field:        "unemployment_rate_percent",
				Title:        "employment",
				Dir:          EmploymentSourceDir,
				Pattern:      CensusDataPattern,
				FilterColumn: CensusNameColumn,
				FilterValue:  DefaultGeography,
				ValueColumn:  "S2301_C04_001E",
				ValueKind:    ValueKindFloat,
			},
		},
		Themes: []ThemeSpec{
			{
				Name:       "economic_squeeze",
				Title:      "Economic Squeeze",
				Indicators: []string{"median_income", "childcare_costs", "homeless_students", "tanf_families", "snap_participants"},
			},
			{
				Name:       "education_pathway",
				Title:      "Education Pathway",
				Indicators: []string{"student_enrollment", "graduation_rate", "dropout_rate", "suspensions", "employment_status"},
			},
			{
				Name:       "community_wellbeing",
				Title:      "Community Wellbeing",
				Indicators: []string{"child_abuse_rate", "juvenile_cases", "collaborative_care"},
			},
		},
	}
}
