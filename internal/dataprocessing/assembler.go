package dataprocessing

import (
	"sort"

	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// AssembleTheme outer-joins indicator tables on year. Fields follow the
// order of the non-empty inputs; an empty input contributes neither rows nor
// a column. Values are never filled: a year missing from an indicator is
// absent in that row. When two inputs publish the same field the earlier
// one wins for years both cover.
func AssembleTheme(name string, tables ...domain.IndicatorTable) domain.ThemeTable {
	theme := domain.ThemeTable{Name: name, Fields: []string{}}
	byYear := make(map[int]map[string]float64)

	for _, t := range tables {
		if t.IsEmpty() {
			continue
		}
		if !contains(theme.Fields, t.Field) {
			theme.Fields = append(theme.Fields, t.Field)
		}

		for _, rec := range t.Records {
			values, ok := byYear[rec.Year]
			if !ok {
				values = make(map[string]float64)
				byYear[rec.Year] = values
			}
			if _, set := values[t.Field]; !set {
				values[t.Field] = rec.Value
			}
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	theme.Rows = make([]domain.ThemeRow, 0, len(years))
	for _, y := range years {
		theme.Rows = append(theme.Rows, domain.ThemeRow{Year: y, Values: byYear[y]})
	}

	return theme
}
