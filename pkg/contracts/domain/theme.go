package domain

// ThemeRow is one year of a theme table. A field missing from Values is absent
// for that year, which is different from a zero value.
type ThemeRow struct {
	Year   int                `json:"year"`
	Values map[string]float64 `json:"values"`
}

// Value returns the value of field for the row and whether it is present
func (r ThemeRow) Value(field string) (float64, bool) {
	v, ok := r.Values[field]
	return v, ok
}

// ThemeTable is the outer join of several indicator tables on year
type ThemeTable struct {
	Name   string     `json:"name"`
	Fields []string   `json:"fields"`
	Rows   []ThemeRow `json:"rows"`
}

// Header returns the column header used when the table is written out
func (t ThemeTable) Header() []string {
	return append([]string{"year"}, t.Fields...)
}

// IsEmpty reports whether the theme has no rows
func (t ThemeTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Years returns the years of the theme in row order
func (t ThemeTable) Years() []int {
	years := make([]int, 0, len(t.Rows))
	for _, r := range t.Rows {
		years = append(years, r.Year)
	}
	return years
}
