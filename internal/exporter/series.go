package exporter

import (
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// IndicatorFileName is the output file of an indicator or theme
func IndicatorFileName(name string) string {
	return name + ".csv"
}

// WriteIndicator writes a year,<field> file named after the indicator
func (w *CSVWriter) WriteIndicator(table domain.IndicatorTable) (string, error) {
	records := make([][]string, 0, len(table.Records))
	for _, r := range table.Records {
		records = append(records, []string{formatYear(r.Year), formatValue(r.Value)})
	}

	return w.WriteSimpleCSV(IndicatorFileName(table.Name), []string{"year", table.Field}, records)
}

// WriteTheme writes a year,<field1>,<field2>,... file named after the theme.
// Absent values are empty cells.
func (w *CSVWriter) WriteTheme(theme domain.ThemeTable) (string, error) {
	return w.WriteSimpleCSV(IndicatorFileName(theme.Name), theme.Header(), themeRecords(theme))
}

func themeRecords(theme domain.ThemeTable) [][]string {
	records := make([][]string, 0, len(theme.Rows))
	for _, row := range theme.Rows {
		record := make([]string, 0, len(theme.Fields)+1)
		record = append(record, formatYear(row.Year))
		for _, field := range theme.Fields {
			if v, ok := row.Value(field); ok {
				record = append(record, formatValue(v))
			} else {
				record = append(record, "")
			}
		}
		records = append(records, record)
	}
	return records
}
