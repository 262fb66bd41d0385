package domain

import (
	"sort"
)

// IndicatorRecord is one yearly observation of an indicator
type IndicatorRecord struct {
	Year  int     `json:"year" db:"year" validate:"required,min=1000,max=9999"`
	Value float64 `json:"value" db:"value"`
}

// IndicatorTable is the extracted time series of a single indicator.
// Name is the canonical indicator name (used for output files), Field is
// the column name the value is published under.
type IndicatorTable struct {
	Name    string            `json:"name"`
	Field   string            `json:"field"`
	Records []IndicatorRecord `json:"records"`
}

// IsEmpty reports whether the table holds no records
func (t IndicatorTable) IsEmpty() bool {
	return len(t.Records) == 0
}

// Years returns the years covered by the table in record order
func (t IndicatorTable) Years() []int {
	years := make([]int, 0, len(t.Records))
	for _, r := range t.Records {
		years = append(years, r.Year)
	}
	return years
}

// SortByYear orders records ascending by year. The sort is stable so records
// sharing a year keep their source order.
func (t *IndicatorTable) SortByYear() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		return t.Records[i].Year < t.Records[j].Year
	})
}

// ExtractionStatus describes how an indicator extraction ended
type ExtractionStatus string

const (
	// ExtractionStatusOK means at least one record was extracted
	ExtractionStatusOK ExtractionStatus = "ok"
	// ExtractionStatusNoRows means the source was read but yielded zero valid records
	ExtractionStatusNoRows ExtractionStatus = "no_rows"
	// ExtractionStatusUnavailable means the source could not be read or its columns could not be resolved
	ExtractionStatusUnavailable ExtractionStatus = "unavailable"
)

// ExtractionResult is the outcome of extracting one indicator. Extraction
// never fails the run; the status and reason say why a table is empty.
type ExtractionResult struct {
	Table             IndicatorTable   `json:"table"`
	Status            ExtractionStatus `json:"status"`
	Reason            string           `json:"reason,omitempty"`
	FilesScanned      int              `json:"files_scanned"`
	RowsDropped       int              `json:"rows_dropped"`
	DuplicatesDropped int              `json:"duplicates_dropped"`
}

// OK reports whether the extraction produced records
func (r ExtractionResult) OK() bool {
	return r.Status == ExtractionStatusOK
}
