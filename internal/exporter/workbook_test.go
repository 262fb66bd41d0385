package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

func TestWriteWorkbook(t *testing.T) {
	w := NewCSVWriter(t.TempDir(), false, quietLogger())

	themes := []domain.ThemeTable{
		{
			Name:   "economic_squeeze",
			Fields: []string{"median_household_income", "snap_participants_avg"},
			Rows: []domain.ThemeRow{
				{Year: 2020, Values: map[string]float64{"median_household_income": 50000}},
				{Year: 2021, Values: map[string]float64{"median_household_income": 52000, "snap_participants_avg": 98000.5}},
			},
		},
		{Name: "community_wellbeing", Fields: []string{}},
	}

	path, err := w.WriteWorkbook(WorkbookFileName, themes)
	require.NoError(t, err)
	assert.Equal(t, WorkbookFileName, filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"economic_squeeze", "community_wellbeing"}, f.GetSheetList())

	rows, err := f.GetRows("economic_squeeze", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"year", "median_household_income", "snap_participants_avg"}, rows[0])
	assert.Equal(t, []string{"2020", "50000"}, rows[1])
	assert.Equal(t, []string{"2021", "52000", "98000.5"}, rows[2])

	rows, err = f.GetRows("community_wellbeing")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"year"}}, rows)
}

func TestWriteWorkbook_NoThemes(t *testing.T) {
	w := NewCSVWriter(t.TempDir(), false, quietLogger())
	_, err := w.WriteWorkbook(WorkbookFileName, nil)
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "economic_squeeze", sheetName("economic_squeeze"))
	assert.Len(t, sheetName("a_theme_name_that_is_far_longer_than_excel_allows"), 31)
}
