package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name       string
		cfg        PathsConfig
		wantData   string
		wantOutput string
		wantLogs   string
	}{
		{
			name:       "relative paths resolve against base",
			cfg:        PathsConfig{DataDir: "raw", OutputDir: "out", LogsDir: "logs"},
			wantData:   filepath.Join(base, "raw"),
			wantOutput: filepath.Join(base, "out"),
			wantLogs:   filepath.Join(base, "logs"),
		},
		{
			name:       "empty values fall back to defaults",
			cfg:        PathsConfig{},
			wantData:   base,
			wantOutput: filepath.Join(base, DefaultOutputDir),
			wantLogs:   filepath.Join(base, DefaultLogsDir),
		},
		{
			name:       "absolute paths are kept",
			cfg:        PathsConfig{DataDir: filepath.Join(base, "abs", "data"), OutputDir: filepath.Join(base, "abs", "out")},
			wantData:   filepath.Join(base, "abs", "data"),
			wantOutput: filepath.Join(base, "abs", "out"),
			wantLogs:   filepath.Join(base, DefaultLogsDir),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := NewPaths(base, tt.cfg)

			assert.Equal(t, tt.wantData, paths.DataDir)
			assert.Equal(t, tt.wantOutput, paths.OutputDir)
			assert.Equal(t, tt.wantLogs, paths.LogsDir)
		})
	}
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(base, PathsConfig{DataDir: "raw", OutputDir: "nested/out", LogsDir: "logs"})

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.OutputDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// input directory is never created
	assert.False(t, FileExists(paths.DataDir))

	// idempotent
	assert.NoError(t, paths.EnsureDirectories())
}

func TestPaths_Getters(t *testing.T) {
	paths := NewPaths("/base", PathsConfig{DataDir: "raw", OutputDir: "out", LogsDir: "logs"})

	assert.Equal(t, filepath.Join("/base", "raw", "Suspensions.xlsx"), paths.GetSourcePath("Suspensions.xlsx"))
	assert.Equal(t, "/elsewhere/file.xlsx", paths.GetSourcePath("/elsewhere/file.xlsx"))
	assert.Equal(t, filepath.Join("/base", "out", "economic_squeeze.csv"), paths.GetOutputPath("economic_squeeze.csv"))
	assert.Equal(t, filepath.Join("/base", "logs", "mc3data.log"), paths.GetLogPath("mc3data.log"))
}
