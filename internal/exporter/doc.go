// Package exporter writes pipeline results to disk.
//
// CSVWriter is bound to one output directory. It writes one file per
// indicator (year,<field>) and one per theme (year,<field1>,<field2>,...),
// comma-separated, with a header row and no index column. Files are
// truncated on every write, so re-running a pipeline replaces its output.
// Values use the shortest round-trip formatting and an absent theme value is
// an empty cell.
//
// WriteWorkbook additionally puts every theme on its own sheet of a single
// spreadsheet for readers who prefer Excel.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter("processed_data", false, logger)
//	path, err := writer.WriteIndicator(result.Table)
//	path, err = writer.WriteTheme(theme)
package exporter
