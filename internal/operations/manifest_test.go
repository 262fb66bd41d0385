package operations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

func TestRunManifest(t *testing.T) {
	t.Run("NewManifest", func(t *testing.T) {
		manifest := NewRunManifest("run-1", "/data", "/out")

		assert.Equal(t, "run-1", manifest.ID)
		assert.Equal(t, RunStatusPending, manifest.Status)
		assert.Empty(t, manifest.Stages)
		assert.NotNil(t, manifest.Files)
	})

	t.Run("RecordStageExecution", func(t *testing.T) {
		manifest := NewRunManifest("run-1", "/data", "/out")

		manifest.RecordStageStart(StageExtract, "Indicator Extraction")
		require.Len(t, manifest.Stages, 1)
		assert.Equal(t, StepStatusRunning, manifest.Stages[0].Status)
		assert.Equal(t, RunStatusRunning, manifest.Status)
		assert.False(t, manifest.IsStageCompleted(StageExtract))

		manifest.RecordStageCompletion(StageExtract, map[string]interface{}{"ok": 3})
		assert.Equal(t, StepStatusCompleted, manifest.Stages[0].Status)
		assert.NotEmpty(t, manifest.Stages[0].Duration)
		assert.True(t, manifest.IsStageCompleted(StageExtract))
	})

	t.Run("RecordStageFailure", func(t *testing.T) {
		manifest := NewRunManifest("run-1", "/data", "/out")

		manifest.RecordStageStart(StageWrite, "Output")
		manifest.RecordStageFailure(StageWrite, errors.New("disk full"))

		assert.Equal(t, RunStatusFailed, manifest.Status)
		assert.Equal(t, StepStatusFailed, manifest.Stages[0].Status)
		assert.Contains(t, manifest.Error, "disk full")
		assert.False(t, manifest.EndTime.IsZero())
	})

	t.Run("Indicators", func(t *testing.T) {
		manifest := NewRunManifest("run-1", "/data", "/out")

		manifest.AddIndicator(domain.ExtractionResult{
			Table: domain.IndicatorTable{
				Name:    "median_income",
				Field:   "median_household_income",
				Records: []domain.IndicatorRecord{{Year: 2019, Value: 1}, {Year: 2022, Value: 2}},
			},
			Status:       domain.ExtractionStatusOK,
			FilesScanned: 4,
		})
		manifest.AddIndicator(domain.ExtractionResult{
			Table:  domain.IndicatorTable{Name: "suspensions", Field: "suspensions_count"},
			Status: domain.ExtractionStatusUnavailable,
			Reason: "source unreadable",
		})

		require.Len(t, manifest.Indicators, 2)
		assert.Equal(t, 2019, manifest.Indicators[0].FirstYear)
		assert.Equal(t, 2022, manifest.Indicators[0].LastYear)
		assert.Equal(t, 2, manifest.Indicators[0].Records)

		degraded := manifest.Degraded()
		require.Len(t, degraded, 1)
		assert.Equal(t, "suspensions", degraded[0].Name)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		fm := files.NewManager(t.TempDir())
		manifest := NewRunManifest("run-1", "/data", "/out")
		manifest.AddTheme(domain.ThemeTable{Name: "economic_squeeze", Fields: []string{"a"}, Rows: []domain.ThemeRow{{Year: 2020}}})
		manifest.AddFile("economic_squeeze.csv")
		manifest.Complete()

		require.NoError(t, manifest.Save(fm, "run_manifest.json"))

		loaded, err := LoadManifest(fm, "run_manifest.json")
		require.NoError(t, err)
		assert.Equal(t, "run-1", loaded.ID)
		assert.Equal(t, RunStatusCompleted, loaded.Status)
		assert.Equal(t, []string{"economic_squeeze.csv"}, loaded.Files)
		require.Len(t, loaded.Themes, 1)
		assert.Equal(t, 1, loaded.Themes[0].Years)

		_, err = LoadManifest(fm, "missing.json")
		assert.Error(t, err)
	})

	t.Run("Clone", func(t *testing.T) {
		manifest := NewRunManifest("run-1", "/data", "/out")
		manifest.AddFile("a.csv")

		clone := manifest.Clone()
		clone.Files[0] = "b.csv"
		assert.Equal(t, "a.csv", manifest.Files[0])
	})
}
