package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/UdayIND/MC3-Summit/internal/config"
	"github.com/UdayIND/MC3-Summit/internal/dataprocessing"
	apperrors "github.com/UdayIND/MC3-Summit/internal/errors"
	"github.com/UdayIND/MC3-Summit/internal/exporter"
	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/internal/storage"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// CatalogSink receives a copy of every run's series
type CatalogSink interface {
	ReplaceIndicators(ctx context.Context, tables []domain.IndicatorTable) error
	ReplaceThemes(ctx context.Context, themes []domain.ThemeTable) error
	SaveRun(ctx context.Context, run storage.RunRecord) error
}

// RunState is shared by the steps of one run
type RunState struct {
	RunID    string
	Catalog  *config.Catalog
	Manifest *RunManifest
	Progress *ProgressTracker

	// Results holds one extraction result per catalog indicator, in catalog order
	Results []domain.ExtractionResult
	// Themes holds one assembled theme per catalog theme, in catalog order
	Themes []domain.ThemeTable
	// Files holds the absolute paths written by this run
	Files []string
}

// Table returns the extracted table of the named indicator
func (s *RunState) Table(name string) (domain.IndicatorTable, bool) {
	for _, r := range s.Results {
		if r.Table.Name == name {
			return r.Table, true
		}
	}
	return domain.IndicatorTable{}, false
}

// ExtractStep runs the indicator extractor over every catalog source
type ExtractStep struct {
	extractor *dataprocessing.Extractor
	tracer    *RunTracer
	logger    *slog.Logger
}

func NewExtractStep(extractor *dataprocessing.Extractor, tracer *RunTracer, logger *slog.Logger) *ExtractStep {
	return &ExtractStep{extractor: extractor, tracer: tracer, logger: logger}
}

func (s *ExtractStep) ID() string   { return StageExtract }
func (s *ExtractStep) Name() string { return "Indicator Extraction" }

// Execute extracts the sources one after the other. A degraded source is
// logged and recorded; it never stops the step.
func (s *ExtractStep) Execute(ctx context.Context, state *RunState) error {
	for _, spec := range state.Catalog.Indicators {
		if err := ctx.Err(); err != nil {
			return err
		}

		state.Progress.Increment(fmt.Sprintf("Processing %s data...", spec.Label()))
		result := s.extractor.Extract(ctx, spec)

		state.Results = append(state.Results, result)
		state.Manifest.AddIndicator(result)
		s.tracer.RecordExtraction(ctx, spec.Name, string(result.Status), len(result.Table.Records), result.RowsDropped)

		if !result.OK() {
			s.logger.WarnContext(ctx, "indicator degraded",
				slog.String("indicator", spec.Name),
				slog.String("status", string(result.Status)),
				slog.String("reason", result.Reason))
		}
	}
	return nil
}

// AssembleStep joins the extracted indicators into the catalog themes
type AssembleStep struct {
	logger *slog.Logger
}

func NewAssembleStep(logger *slog.Logger) *AssembleStep {
	return &AssembleStep{logger: logger}
}

func (s *AssembleStep) ID() string   { return StageAssemble }
func (s *AssembleStep) Name() string { return "Narrative Assembly" }

func (s *AssembleStep) Execute(ctx context.Context, state *RunState) error {
	state.Progress.Begin(StageAssemble, "Creating narrative datasets...")

	for _, spec := range state.Catalog.Themes {
		tables := make([]domain.IndicatorTable, 0, len(spec.Indicators))
		for _, name := range spec.Indicators {
			t, ok := state.Table(name)
			if !ok {
				return apperrors.NewAppValidationError(fmt.Sprintf("theme %s references unknown indicator %s", spec.Name, name))
			}
			tables = append(tables, t)
		}

		theme := dataprocessing.AssembleTheme(spec.Name, tables...)
		state.Themes = append(state.Themes, theme)
		state.Manifest.AddTheme(theme)

		s.logger.InfoContext(ctx, "theme assembled",
			slog.String("theme", theme.Name),
			slog.Int("years", len(theme.Rows)),
			slog.Int("fields", len(theme.Fields)))
	}
	return nil
}

// WriteStep persists the indicators and themes. Any failure here fails the
// run.
type WriteStep struct {
	writer       *exporter.CSVWriter
	files        *files.Manager
	sink         CatalogSink
	manifestFile string
	workbook     bool
	tracer       *RunTracer
	logger       *slog.Logger
}

// WriteStepOptions configures the write stage
type WriteStepOptions struct {
	Writer       *exporter.CSVWriter
	Files        *files.Manager
	Sink         CatalogSink
	ManifestFile string
	Workbook     bool
}

func NewWriteStep(opts WriteStepOptions, tracer *RunTracer, logger *slog.Logger) *WriteStep {
	return &WriteStep{
		writer:       opts.Writer,
		files:        opts.Files,
		sink:         opts.Sink,
		manifestFile: opts.ManifestFile,
		workbook:     opts.Workbook,
		tracer:       tracer,
		logger:       logger,
	}
}

func (s *WriteStep) ID() string   { return StageWrite }
func (s *WriteStep) Name() string { return "Output" }

func (s *WriteStep) Execute(ctx context.Context, state *RunState) error {
	if err := s.removeStale(ctx, state); err != nil {
		return err
	}

	for _, theme := range state.Themes {
		path, err := s.writer.WriteTheme(theme)
		if err != nil {
			return s.writeError(theme.Name+".csv", err)
		}
		s.recordFile(ctx, state, path, "theme")
	}

	indicators := make([]domain.IndicatorTable, 0, len(state.Results))
	for _, result := range state.Results {
		if result.Table.IsEmpty() {
			continue
		}
		path, err := s.writer.WriteIndicator(result.Table)
		if err != nil {
			return s.writeError(exporter.IndicatorFileName(result.Table.Name), err)
		}
		s.recordFile(ctx, state, path, "indicator")
		indicators = append(indicators, result.Table)
	}

	if s.workbook {
		path, err := s.writer.WriteWorkbook(exporter.WorkbookFileName, state.Themes)
		if err != nil {
			return s.writeError(exporter.WorkbookFileName, err)
		}
		s.recordFile(ctx, state, path, "workbook")
	}

	if s.sink != nil {
		if err := s.sink.ReplaceIndicators(ctx, indicators); err != nil {
			return err
		}
		if err := s.sink.ReplaceThemes(ctx, state.Themes); err != nil {
			return err
		}
	}

	state.Progress.Printf("Processing complete! Files saved to %s", s.writer.OutputDir())
	return nil
}

// removeStale deletes the files an earlier run wrote that this run will not
// rewrite: the CSV of every indicator that came back empty, and the workbook
// when it is disabled.
func (s *WriteStep) removeStale(ctx context.Context, state *RunState) error {
	written := make(map[string]bool, len(state.Results))
	for _, result := range state.Results {
		if !result.Table.IsEmpty() {
			written[result.Table.Name] = true
		}
	}

	var stale []string
	if state.Catalog != nil {
		for _, spec := range state.Catalog.Indicators {
			if !written[spec.Name] {
				stale = append(stale, exporter.IndicatorFileName(spec.Name))
			}
		}
	}
	if !s.workbook {
		stale = append(stale, exporter.WorkbookFileName)
	}

	for _, name := range stale {
		path := filepath.Join(s.writer.OutputDir(), name)
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return apperrors.NewWriteError(path, fmt.Errorf("failed to remove stale output: %w", err))
		}
		s.logger.InfoContext(ctx, "stale output removed", slog.String("path", path))
	}
	return nil
}

func (s *WriteStep) writeError(name string, err error) error {
	return apperrors.NewWriteError(filepath.Join(s.writer.OutputDir(), name), err)
}

func (s *WriteStep) recordFile(ctx context.Context, state *RunState, path, kind string) {
	state.Files = append(state.Files, path)
	state.Manifest.AddFile(filepath.Base(path))
	s.tracer.RecordFileWritten(ctx, kind)
	s.logger.DebugContext(ctx, "output written", slog.String("path", path), slog.String("kind", kind))
}

// finalize saves the manifest and the run record once every stage is done
func (s *WriteStep) finalize(ctx context.Context, state *RunState) error {
	if s.files != nil && s.manifestFile != "" {
		if err := state.Manifest.Save(s.files, s.manifestFile); err != nil {
			return apperrors.NewWriteError(s.files.Path(s.manifestFile), err)
		}
		s.tracer.RecordFileWritten(ctx, "manifest")
	}

	if s.sink != nil {
		m := state.Manifest.Clone()
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
		return s.sink.SaveRun(ctx, storage.RunRecord{
			ID:           m.ID,
			StartedAt:    m.StartTime,
			FinishedAt:   m.EndTime,
			Status:       string(m.Status),
			ManifestJSON: string(data),
		})
	}
	return nil
}
