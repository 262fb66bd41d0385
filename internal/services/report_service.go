package services

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/UdayIND/MC3-Summit/internal/config"
	apperrors "github.com/UdayIND/MC3-Summit/internal/errors"
	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/internal/operations"
	"github.com/UdayIND/MC3-Summit/internal/storage"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// Runner executes pipeline runs
type Runner interface {
	Run(ctx context.Context) (*operations.RunResult, error)
	Progress() (operations.Snapshot, bool)
	Catalog() *config.Catalog
}

// RunHistory is the SQLite catalog of earlier runs. It answers for the
// indicators and the manifest until this process has completed a run.
type RunHistory interface {
	LatestRun(ctx context.Context) (*storage.RunRecord, error)
	Indicator(ctx context.Context, name string) (domain.IndicatorTable, error)
}

// ThemeInfo describes a theme without its rows
type ThemeInfo struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
	Years  []int    `json:"years"`
}

// RunStatus reports whether a run is active and how far it got
type RunStatus struct {
	Running   bool                 `json:"running"`
	LastRunID string               `json:"last_run_id,omitempty"`
	Progress  *operations.Snapshot `json:"progress,omitempty"`
}

// ReportService serves the outputs of the latest run
type ReportService struct {
	runner       Runner
	outputs      *files.Manager
	manifestFile string
	history      RunHistory
	logger       *slog.Logger

	mu      sync.RWMutex
	latest  *operations.RunResult
	running atomic.Bool
}

// NewReportService creates a report service over runner. outputs is the
// output directory, used to list files and to read the manifest of a run
// made by an earlier process.
func NewReportService(runner Runner, outputs *files.Manager, manifestFile string, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if manifestFile == "" {
		manifestFile = config.DefaultManifestFile
	}
	return &ReportService{
		runner:       runner,
		outputs:      outputs,
		manifestFile: manifestFile,
		logger:       logger.With(slog.String("service", "report")),
	}
}

// WithHistory sets the catalog consulted before the first run of this
// process
func (s *ReportService) WithHistory(history RunHistory) *ReportService {
	s.history = history
	return s
}

// Run executes one pipeline run. Only one run may be active at a time; a
// failed run leaves the previous result in place.
func (s *ReportService) Run(ctx context.Context) (*operations.RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, apperrors.NewConflictError(ErrRunInProgress.Error())
	}
	defer s.running.Store(false)

	result, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "run failed", slog.String("error", err.Error()))
		return result, err
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "run stored", slog.String("run_id", result.RunID))
	return result, nil
}

// Status returns the state of the run loop
func (s *ReportService) Status() RunStatus {
	status := RunStatus{Running: s.running.Load()}
	if snap, ok := s.runner.Progress(); ok {
		status.Progress = &snap
	}
	if latest, err := s.latestResult(); err == nil {
		status.LastRunID = latest.RunID
	}
	return status
}

func (s *ReportService) latestResult() (*operations.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, apperrors.NewNotFoundError(ErrNoRun.Error())
	}
	return s.latest, nil
}

// Themes lists the themes of the latest run in catalog order
func (s *ReportService) Themes() ([]ThemeInfo, error) {
	latest, err := s.latestResult()
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string)
	for _, t := range s.runner.Catalog().Themes {
		titles[t.Name] = t.Label()
	}

	out := make([]ThemeInfo, 0, len(latest.Themes))
	for _, theme := range latest.Themes {
		out = append(out, ThemeInfo{
			Name:   theme.Name,
			Title:  titles[theme.Name],
			Fields: theme.Fields,
			Years:  theme.Years(),
		})
	}
	return out, nil
}

// Theme returns one assembled theme
func (s *ReportService) Theme(name string) (domain.ThemeTable, error) {
	latest, err := s.latestResult()
	if err != nil {
		return domain.ThemeTable{}, err
	}
	for _, theme := range latest.Themes {
		if theme.Name == name {
			return theme, nil
		}
	}
	return domain.ThemeTable{}, apperrors.NewNotFoundError("theme " + name)
}

// Indicators returns the extraction status of every indicator
func (s *ReportService) Indicators() ([]operations.IndicatorStatus, error) {
	latest, err := s.latestResult()
	if err != nil {
		return nil, err
	}
	return latest.Manifest.Clone().Indicators, nil
}

// Indicator returns the extraction result of one indicator. Before the
// first run it serves the series stored by the previous one; only series
// that had rows are stored.
func (s *ReportService) Indicator(ctx context.Context, name string) (domain.ExtractionResult, error) {
	latest, err := s.latestResult()
	if err != nil {
		if s.history == nil {
			return domain.ExtractionResult{}, err
		}
		return s.storedIndicator(ctx, name)
	}
	for _, r := range latest.Indicators {
		if r.Table.Name == name {
			return r, nil
		}
	}
	return domain.ExtractionResult{}, apperrors.NewNotFoundError("indicator " + name)
}

func (s *ReportService) storedIndicator(ctx context.Context, name string) (domain.ExtractionResult, error) {
	if _, ok := s.runner.Catalog().Indicator(name); !ok {
		return domain.ExtractionResult{}, apperrors.NewNotFoundError("indicator " + name)
	}
	table, err := s.history.Indicator(ctx, name)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	return domain.ExtractionResult{Table: table, Status: domain.ExtractionStatusOK}, nil
}

// Manifest returns the manifest of the latest run. A previous process is
// covered by the manifest file it left in the output directory, then by the
// run it recorded in the catalog.
func (s *ReportService) Manifest(ctx context.Context) (*operations.RunManifest, error) {
	if latest, err := s.latestResult(); err == nil {
		return latest.Manifest.Clone(), nil
	}

	if s.outputs != nil && s.outputs.FileExists(s.manifestFile) {
		manifest, err := operations.LoadManifest(s.outputs, s.manifestFile)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to read manifest", err)
		}
		return manifest, nil
	}

	if s.history == nil {
		return nil, apperrors.NewNotFoundError("manifest")
	}
	run, err := s.history.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	var manifest operations.RunManifest
	if err := json.Unmarshal([]byte(run.ManifestJSON), &manifest); err != nil {
		return nil, apperrors.NewStorageError("failed to decode stored manifest", err)
	}
	return &manifest, nil
}

// Outputs lists the files in the output directory
func (s *ReportService) Outputs() ([]files.FileInfo, error) {
	if s.outputs == nil {
		return nil, apperrors.NewNotFoundError("output directory")
	}
	list, err := s.outputs.ListFiles()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("output directory")
		}
		return nil, apperrors.NewStorageError("failed to list outputs", err)
	}
	return list, nil
}
