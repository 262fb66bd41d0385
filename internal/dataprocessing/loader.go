package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a loaded source file: normalized column names plus string cells.
// An empty cell is null. Every row has exactly len(Columns) cells.
type Table struct {
	Path    string
	Columns []string
	Rows    [][]string
}

// IsEmpty reports whether the table has no columns or no rows
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0
}

// ColumnIndex returns the position of the column with the given normalized
// name, or -1
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

var (
	nonWordChars   = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	repeatedUnders = regexp.MustCompile(`_+`)
)

// NormalizeColumnName lower-cases a header and reduces it to word characters
// joined by single underscores: "Reporting Year" becomes "reporting_year",
// "Rate (%)" becomes "rate".
func NormalizeColumnName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	s = nonWordChars.ReplaceAllString(s, "_")
	s = repeatedUnders.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Load reads a delimited-text or spreadsheet file into a Table with
// normalized column names. Entirely blank rows are dropped.
func Load(path string) (*Table, error) {
	var (
		raw [][]string
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		raw, err = readDelimited(path)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		raw, err = readSpreadsheet(path)
	default:
		return nil, fmt.Errorf("unsupported file format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	return newTable(path, raw), nil
}

// LoadOrEmpty is Load for callers that treat an unreadable file as having
// nothing to contribute. The failure is logged and an empty table returned.
func LoadOrEmpty(path string, logger *slog.Logger) *Table {
	t, err := Load(path)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("source file could not be read",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return &Table{Path: path}
	}
	return t
}

func readDelimited(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// readSpreadsheet returns the raw (unformatted) cell values of the first
// sheet that has a non-blank header row
func readSpreadsheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		if len(rows) > 0 && !isBlankRow(rows[0]) {
			return rows, nil
		}
	}

	return nil, nil
}

func newTable(path string, raw [][]string) *Table {
	t := &Table{Path: path}
	if len(raw) == 0 {
		return t
	}

	header := raw[0]
	t.Columns = make([]string, len(header))
	for i, h := range header {
		name := NormalizeColumnName(h)
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}
		t.Columns[i] = name
	}

	for _, rec := range raw[1:] {
		if isBlankRow(rec) {
			continue
		}
		row := make([]string, len(t.Columns))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		if isBlankRow(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
