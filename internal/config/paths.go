package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved directories of one run. It is passed
// explicitly to every component that touches the file system so that two
// runs (or two tests) can target isolated locations.
type Paths struct {
	BaseDir   string
	DataDir   string
	OutputDir string
	LogsDir   string
}

// ResolvePaths resolves the configured directories against the current
// working directory. Absolute paths are kept as-is.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewPaths(wd, cfg), nil
}

// NewPaths resolves the configured directories against baseDir
func NewPaths(baseDir string, cfg PathsConfig) *Paths {
	resolve := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(baseDir, p)
	}

	return &Paths{
		BaseDir:   baseDir,
		DataDir:   resolve(cfg.DataDir, "."),
		OutputDir: resolve(cfg.OutputDir, DefaultOutputDir),
		LogsDir:   resolve(cfg.LogsDir, DefaultLogsDir),
	}
}

// EnsureDirectories creates the output and logs directories if they don't exist.
// The data directory is input only and is never created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetSourcePath returns the absolute path of a source file or directory
func (p *Paths) GetSourcePath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.DataDir, rel)
}

// GetOutputPath returns the absolute path of an output file
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// GetLogPath returns the absolute path of a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
