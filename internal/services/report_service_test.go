package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/UdayIND/MC3-Summit/internal/config"
	apperrors "github.com/UdayIND/MC3-Summit/internal/errors"
	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/internal/operations"
	"github.com/UdayIND/MC3-Summit/internal/storage"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context) (*operations.RunResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*operations.RunResult)
	return result, args.Error(1)
}

func (m *mockRunner) Progress() (operations.Snapshot, bool) {
	args := m.Called()
	return args.Get(0).(operations.Snapshot), args.Bool(1)
}

func (m *mockRunner) Catalog() *config.Catalog {
	return config.DefaultCatalog()
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) LatestRun(ctx context.Context) (*storage.RunRecord, error) {
	args := m.Called(ctx)
	run, _ := args.Get(0).(*storage.RunRecord)
	return run, args.Error(1)
}

func (m *mockHistory) Indicator(ctx context.Context, name string) (domain.IndicatorTable, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.IndicatorTable), args.Error(1)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResult(runID string) *operations.RunResult {
	income := domain.ExtractionResult{
		Table: domain.IndicatorTable{
			Name:    "median_income",
			Field:   "median_household_income",
			Records: []domain.IndicatorRecord{{Year: 2020, Value: 50000}, {Year: 2021, Value: 52000}},
		},
		Status: domain.ExtractionStatusOK,
	}
	snap := domain.ExtractionResult{
		Table:  domain.IndicatorTable{Name: "snap_participants", Field: "snap_participants_avg"},
		Status: domain.ExtractionStatusUnavailable,
		Reason: "source unreadable",
	}

	manifest := operations.NewRunManifest(runID, "/data", "/out")
	manifest.AddIndicator(income)
	manifest.AddIndicator(snap)
	manifest.Complete()

	return &operations.RunResult{
		RunID:      runID,
		Indicators: []domain.ExtractionResult{income, snap},
		Themes: []domain.ThemeTable{{
			Name:   "economic_squeeze",
			Fields: []string{"median_household_income"},
			Rows: []domain.ThemeRow{
				{Year: 2020, Values: map[string]float64{"median_household_income": 50000}},
				{Year: 2021, Values: map[string]float64{"median_household_income": 52000}},
			},
		}},
		Manifest: manifest,
	}
}

func TestReportService_BeforeFirstRun(t *testing.T) {
	runner := &mockRunner{}
	svc := NewReportService(runner, files.NewManager(t.TempDir()), "", quietLogger())

	_, err := svc.Themes()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	_, err = svc.Theme("economic_squeeze")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	_, err = svc.Indicators()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	_, err = svc.Manifest(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestReportService_Run(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(sampleResult("run-1"), nil).Once()
	runner.On("Progress").Return(operations.Snapshot{Current: 13, Total: 13}, true)

	svc := NewReportService(runner, nil, "", quietLogger())
	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)

	themes, err := svc.Themes()
	require.NoError(t, err)
	require.Len(t, themes, 1)
	assert.Equal(t, "Economic Squeeze", themes[0].Title)
	assert.Equal(t, []int{2020, 2021}, themes[0].Years)

	theme, err := svc.Theme("economic_squeeze")
	require.NoError(t, err)
	assert.Len(t, theme.Rows, 2)

	_, err = svc.Theme("unknown")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	indicators, err := svc.Indicators()
	require.NoError(t, err)
	assert.Len(t, indicators, 2)

	ind, err := svc.Indicator(context.Background(), "snap_participants")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusUnavailable, ind.Status)

	_, err = svc.Indicator(context.Background(), "unknown")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	manifest, err := svc.Manifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", manifest.ID)

	status := svc.Status()
	assert.False(t, status.Running)
	assert.Equal(t, "run-1", status.LastRunID)
	require.NotNil(t, status.Progress)
	assert.Equal(t, 13, status.Progress.Current)

	runner.AssertExpectations(t)
}

func TestReportService_FailedRunKeepsPrevious(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(sampleResult("run-1"), nil).Once()
	runner.On("Run", mock.Anything).Return(sampleResult("run-2"), apperrors.NewWriteError("/out/x.csv", errors.New("disk full"))).Once()

	svc := NewReportService(runner, nil, "", quietLogger())
	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	_, err = svc.Run(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWrite))

	manifest, err := svc.Manifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", manifest.ID)
}

func TestReportService_ConcurrentRunConflicts(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(sampleResult("run-1"), nil).Once()
	runner.On("Progress").Return(operations.Snapshot{}, false)

	svc := NewReportService(runner, nil, "", quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background())
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not start")
	}

	assert.True(t, svc.Status().Running)
	_, err := svc.Run(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConflict))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, svc.Status().Running)
}

func TestReportService_ManifestFromDisk(t *testing.T) {
	dir := t.TempDir()
	fm := files.NewManager(dir)

	manifest := operations.NewRunManifest("cli-run", "/data", dir)
	manifest.Complete()
	require.NoError(t, manifest.Save(fm, config.DefaultManifestFile))

	svc := NewReportService(&mockRunner{}, fm, "", quietLogger())
	loaded, err := svc.Manifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cli-run", loaded.ID)

	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultManifestFile), []byte("{broken"), 0644))
	_, err = svc.Manifest(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestReportService_Outputs(t *testing.T) {
	dir := t.TempDir()
	fm := files.NewManager(dir)
	require.NoError(t, fm.WriteFile("economic_squeeze.csv", []byte("year\n")))
	require.NoError(t, fm.WriteFile("median_income.csv", []byte("year\n")))

	svc := NewReportService(&mockRunner{}, fm, "", quietLogger())
	list, err := svc.Outputs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "economic_squeeze.csv", list[0].Name)

	missing := NewReportService(&mockRunner{}, files.NewManager(filepath.Join(dir, "nope")), "", quietLogger())
	_, err = missing.Outputs()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestReportService_HistoryBeforeFirstRun(t *testing.T) {
	ctx := context.Background()
	stored := operations.NewRunManifest("stored-run", "/data", "/out")
	stored.Complete()
	data, err := json.Marshal(stored)
	require.NoError(t, err)

	history := &mockHistory{}
	history.On("LatestRun", mock.Anything).Return(&storage.RunRecord{ID: "stored-run", ManifestJSON: string(data)}, nil)
	history.On("Indicator", mock.Anything, "median_income").Return(domain.IndicatorTable{
		Name:    "median_income",
		Field:   "median_household_income",
		Records: []domain.IndicatorRecord{{Year: 2021, Value: 52000}},
	}, nil)
	history.On("Indicator", mock.Anything, "snap_participants").
		Return(domain.IndicatorTable{}, apperrors.NewNotFoundError("indicator snap_participants"))

	svc := NewReportService(&mockRunner{}, files.NewManager(t.TempDir()), "", quietLogger()).WithHistory(history)

	manifest, err := svc.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stored-run", manifest.ID)
	assert.Equal(t, operations.RunStatusCompleted, manifest.Status)

	ind, err := svc.Indicator(ctx, "median_income")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusOK, ind.Status)
	assert.Equal(t, "median_household_income", ind.Table.Field)
	assert.Equal(t, []int{2021}, ind.Table.Years())

	_, err = svc.Indicator(ctx, "snap_participants")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, err = svc.Indicator(ctx, "unknown")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	history.AssertNotCalled(t, "Indicator", mock.Anything, "unknown")
}

func TestReportService_HistoryPrecedence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fm := files.NewManager(dir)
	onDisk := operations.NewRunManifest("cli-run", "/data", dir)
	require.NoError(t, onDisk.Save(fm, config.DefaultManifestFile))

	history := &mockHistory{}
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(sampleResult("run-1"), nil).Once()

	svc := NewReportService(runner, fm, "", quietLogger()).WithHistory(history)

	manifest, err := svc.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cli-run", manifest.ID, "the manifest file wins over the catalog")

	_, err = svc.Run(ctx)
	require.NoError(t, err)
	manifest, err = svc.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", manifest.ID)

	_, err = svc.Indicator(ctx, "snap_participants")
	require.NoError(t, err)

	history.AssertNotCalled(t, "LatestRun", mock.Anything)
	history.AssertNotCalled(t, "Indicator", mock.Anything, mock.Anything)
}

func TestReportService_HistoryEmptyOrCorrupt(t *testing.T) {
	ctx := context.Background()

	empty := &mockHistory{}
	empty.On("LatestRun", mock.Anything).Return(nil, apperrors.NewNotFoundError("run"))
	svc := NewReportService(&mockRunner{}, nil, "", quietLogger()).WithHistory(empty)
	_, err := svc.Manifest(ctx)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	corrupt := &mockHistory{}
	corrupt.On("LatestRun", mock.Anything).Return(&storage.RunRecord{ID: "x", ManifestJSON: "{broken"}, nil)
	svc = NewReportService(&mockRunner{}, nil, "", quietLogger()).WithHistory(corrupt)
	_, err = svc.Manifest(ctx)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
