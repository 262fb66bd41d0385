package operations

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/UdayIND/MC3-Summit/internal/config"
	apperrors "github.com/UdayIND/MC3-Summit/internal/errors"
	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/internal/storage"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeXLSX(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	require.NoError(t, f.SaveAs(path))
}

// seedSources writes the income survey for 2020-2021 and the suspensions
// workbook; every other default source is missing.
func seedSources(t *testing.T, dataDir string) {
	t.Helper()
	income := filepath.Join(dataDir, config.IncomeSourceDir)
	writeFile(t, filepath.Join(income, "ACSST1Y2020.S1903-Data.csv"),
		"GEO_ID,NAME,S1903_C03_001E\nGeography,Geographic Area Name,Median income\n0500000US36055,\"Monroe County, New York\",50000\n")
	writeFile(t, filepath.Join(income, "ACSST1Y2021.S1903-Data.csv"),
		"GEO_ID,NAME,S1903_C03_001E\nGeography,Geographic Area Name,Median income\n0500000US36055,\"Monroe County, New York\",52000\n")

	writeXLSX(t, filepath.Join(dataDir, "Suspensions.xlsx"), [][]interface{}{
		{"School Year", "Suspension Count"},
		{2022, 410},
		{2021, 388},
	})
}

func newTestPipeline(t *testing.T, out io.Writer, sink CatalogSink) (*Pipeline, *config.Paths) {
	t.Helper()
	base := t.TempDir()
	paths := config.NewPaths(base, config.PathsConfig{DataDir: "data", OutputDir: "processed_data"})
	seedSources(t, paths.DataDir)

	p, err := NewPipeline(Options{
		Paths:    paths,
		Output:   config.OutputConfig{ManifestFile: "run_manifest.json"},
		Progress: out,
		Logger:   quietLogger(),
		Sink:     sink,
	})
	require.NoError(t, err)
	return p, paths
}

func readOutput(t *testing.T, paths *config.Paths, name string) string {
	t.Helper()
	data, err := os.ReadFile(paths.GetOutputPath(name))
	require.NoError(t, err)
	return string(data)
}

func TestPipeline_RunWithMissingSources(t *testing.T) {
	var out bytes.Buffer
	p, paths := newTestPipeline(t, &out, nil)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Indicators, 13)
	require.Len(t, result.Themes, 3)

	assert.Equal(t, "year,median_household_income\n2020,50000\n2021,52000\n", readOutput(t, paths, "economic_squeeze.csv"))
	assert.Equal(t, "year,suspensions_count\n2021,388\n2022,410\n", readOutput(t, paths, "education_pathway.csv"))
	assert.Equal(t, "year\n", readOutput(t, paths, "community_wellbeing.csv"))
	assert.Equal(t, "year,median_household_income\n2020,50000\n2021,52000\n", readOutput(t, paths, "median_income.csv"))
	assert.Equal(t, "year,suspensions_count\n2021,388\n2022,410\n", readOutput(t, paths, "suspensions.csv"))

	assert.NoFileExists(t, paths.GetOutputPath("snap_participants.csv"), "empty indicators are not written")

	var names []string
	for _, f := range result.Files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{
		"economic_squeeze.csv", "education_pathway.csv", "community_wellbeing.csv",
		"median_income.csv", "suspensions.csv",
	}, names)

	assert.Contains(t, out.String(), "Processing median income data...\n")
	assert.Contains(t, out.String(), "Processing employment data...\n")
	assert.Contains(t, out.String(), "Creating narrative datasets...\n")
	assert.Contains(t, out.String(), "Processing complete! Files saved to "+paths.OutputDir)

	manifest, err := LoadManifest(files.NewManager(paths.OutputDir), "run_manifest.json")
	require.NoError(t, err)
	assert.Equal(t, result.RunID, manifest.ID)
	assert.Equal(t, RunStatusCompleted, manifest.Status)
	assert.Len(t, manifest.Stages, 3)
	assert.Len(t, manifest.Degraded(), 11)

	snap, ok := p.Progress()
	require.True(t, ok)
	assert.Equal(t, 13, snap.Current)
}

func TestPipeline_RerunOverwrites(t *testing.T) {
	p, paths := newTestPipeline(t, nil, nil)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	writeFile(t, filepath.Join(paths.DataDir, config.IncomeSourceDir, "ACSST1Y2021.S1903-Data.csv"),
		"GEO_ID,NAME,S1903_C03_001E\n0500000US36055,\"Monroe County, New York\",53000\n")

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "year,median_household_income\n2020,50000\n2021,53000\n", readOutput(t, paths, "median_income.csv"))

	manifest, err := LoadManifest(files.NewManager(paths.OutputDir), "run_manifest.json")
	require.NoError(t, err)
	assert.Equal(t, second.RunID, manifest.ID)
}

func TestPipeline_RerunRemovesStaleOutputs(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base, config.PathsConfig{DataDir: "data", OutputDir: "processed_data"})
	seedSources(t, paths.DataDir)

	withWorkbook, err := NewPipeline(Options{
		Paths:  paths,
		Output: config.OutputConfig{Workbook: true},
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	_, err = withWorkbook.Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, paths.GetOutputPath("suspensions.csv"))
	require.FileExists(t, paths.GetOutputPath("mc3_themes.xlsx"))

	writeFile(t, paths.GetOutputPath("notes.txt"), "kept")
	require.NoError(t, os.Remove(filepath.Join(paths.DataDir, "Suspensions.xlsx")))

	p, err := NewPipeline(Options{Paths: paths, Logger: quietLogger()})
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, paths.GetOutputPath("suspensions.csv"))
	assert.NoFileExists(t, paths.GetOutputPath("mc3_themes.xlsx"))
	assert.FileExists(t, paths.GetOutputPath("median_income.csv"))
	assert.FileExists(t, paths.GetOutputPath("notes.txt"), "files outside the catalog are left alone")
	assert.Equal(t, "year\n", readOutput(t, paths, "education_pathway.csv"))
	assert.NotContains(t, second.Manifest.Files, "suspensions.csv")
}

func TestPipeline_WriteFailureFailsRun(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base, config.PathsConfig{DataDir: "data", OutputDir: "blocked/out"})
	seedSources(t, paths.DataDir)
	writeFile(t, filepath.Join(base, "blocked"), "not a directory")

	p, err := NewPipeline(Options{Paths: paths, Logger: quietLogger()})
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWrite))

	require.NotNil(t, result)
	assert.Equal(t, RunStatusFailed, result.Manifest.Status)
	assert.True(t, result.Manifest.IsStageCompleted(StageExtract))
	assert.True(t, result.Manifest.IsStageCompleted(StageAssemble))
	assert.False(t, result.Manifest.IsStageCompleted(StageWrite))
}

func TestPipeline_Cancelled(t *testing.T) {
	p, _ := newTestPipeline(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Indicators)
	assert.Equal(t, RunStatusFailed, result.Manifest.Status)
}

func TestPipeline_Workbook(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base, config.PathsConfig{DataDir: "data", OutputDir: "out"})
	seedSources(t, paths.DataDir)

	p, err := NewPipeline(Options{
		Paths:  paths,
		Output: config.OutputConfig{Workbook: true},
		Logger: quietLogger(),
	})
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, paths.GetOutputPath("mc3_themes.xlsx"))
	assert.Contains(t, result.Manifest.Files, "mc3_themes.xlsx")
	assert.FileExists(t, paths.GetOutputPath(config.DefaultManifestFile))
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) ReplaceIndicators(ctx context.Context, tables []domain.IndicatorTable) error {
	return m.Called(ctx, tables).Error(0)
}

func (m *mockSink) ReplaceThemes(ctx context.Context, themes []domain.ThemeTable) error {
	return m.Called(ctx, themes).Error(0)
}

func (m *mockSink) SaveRun(ctx context.Context, run storage.RunRecord) error {
	return m.Called(ctx, run).Error(0)
}

func TestPipeline_Sink(t *testing.T) {
	sink := &mockSink{}
	sink.On("ReplaceIndicators", mock.Anything, mock.MatchedBy(func(tables []domain.IndicatorTable) bool {
		return len(tables) == 2 && tables[0].Name == "median_income" && tables[1].Name == "suspensions"
	})).Return(nil).Once()
	sink.On("ReplaceThemes", mock.Anything, mock.MatchedBy(func(themes []domain.ThemeTable) bool {
		return len(themes) == 3
	})).Return(nil).Once()
	sink.On("SaveRun", mock.Anything, mock.MatchedBy(func(run storage.RunRecord) bool {
		return run.Status == string(RunStatusCompleted) && run.ManifestJSON != ""
	})).Return(nil).Once()

	p, _ := newTestPipeline(t, nil, sink)
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	sink.AssertExpectations(t)
}

func TestPipeline_SinkFailure(t *testing.T) {
	sink := &mockSink{}
	sink.On("ReplaceIndicators", mock.Anything, mock.Anything).
		Return(apperrors.NewStorageError("write catalog", os.ErrPermission))
	sink.On("SaveRun", mock.Anything, mock.Anything).Return(nil)

	p, _ := newTestPipeline(t, nil, sink)
	result, err := p.Run(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.Equal(t, RunStatusFailed, result.Manifest.Status)
}

func TestPipeline_SQLiteSink(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "mc3.db"))
	require.NoError(t, err)
	defer db.Close()
	store := storage.NewCatalogStore(db)

	p, _ := newTestPipeline(t, nil, store)
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	income, err := store.Indicator(context.Background(), "median_income")
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2021}, income.Years())

	latest, err := store.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.RunID, latest.ID)
}

func TestNewPipeline_RequiresPaths(t *testing.T) {
	_, err := NewPipeline(Options{})
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	p, paths := newTestPipeline(t, nil, nil)
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	PrintSummary(&out, p.Catalog(), paths.OutputDir, result)

	s := out.String()
	assert.Contains(t, s, "Data processing summary:\n")
	assert.Contains(t, s, "Economic Squeeze data: 2 years\n")
	assert.Contains(t, s, "Education Pathway data: 2 years\n")
	assert.Contains(t, s, "Community Wellbeing data: 0 years\n")
	assert.Contains(t, s, "Processed files created in 'processed_data/' directory:\n")
	assert.Contains(t, s, "  - median_income.csv\n")
	assert.Contains(t, s, "  - snap_participants (unavailable:")
}
