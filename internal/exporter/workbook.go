package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// WorkbookFileName is the combined spreadsheet written next to the CSVs
const WorkbookFileName = "mc3_themes.xlsx"

// WriteWorkbook writes every theme as its own sheet of one spreadsheet, in
// the order given. Absent values are left as blank cells.
func (w *CSVWriter) WriteWorkbook(fileName string, themes []domain.ThemeTable) (string, error) {
	if len(themes) == 0 {
		return "", fmt.Errorf("no themes to write")
	}

	fullPath := w.resolvePath(fileName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	for i, theme := range themes {
		sheet := sheetName(theme.Name)
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		header := make([]interface{}, 0, len(theme.Fields)+1)
		for _, h := range theme.Header() {
			header = append(header, h)
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return "", fmt.Errorf("failed to write header of %s: %w", sheet, err)
		}
		end, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := f.SetCellStyle(sheet, "A1", end, bold); err != nil {
			return "", fmt.Errorf("failed to style header of %s: %w", sheet, err)
		}

		for r, row := range theme.Rows {
			values := make([]interface{}, 0, len(header))
			values = append(values, row.Year)
			for _, field := range theme.Fields {
				if v, ok := row.Value(field); ok {
					values = append(values, v)
				} else {
					values = append(values, nil)
				}
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return "", fmt.Errorf("failed to write row %d of %s: %w", r+2, sheet, err)
			}
		}
	}

	if sheetName(themes[0].Name) != defaultSheet {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return "", fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Wrote workbook",
		slog.String("full_path", fullPath),
		slog.Int("sheets", len(themes)))

	return fullPath, nil
}

// sheetName trims a theme name to the 31-character sheet name limit
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
