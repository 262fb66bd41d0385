package operations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/UdayIND/MC3-Summit/internal/config"
	"github.com/UdayIND/MC3-Summit/internal/dataprocessing"
	"github.com/UdayIND/MC3-Summit/internal/exporter"
	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/internal/infrastructure"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// Options configures a Pipeline
type Options struct {
	Paths   *config.Paths
	Catalog *config.Catalog
	Output  config.OutputConfig

	// Progress receives the human-readable progress lines; nil discards them
	Progress io.Writer
	Logger   *slog.Logger
	Metrics  *infrastructure.PipelineMetrics

	// Finder overrides source discovery for per-year indicators
	Finder dataprocessing.SourceFinder
	// Sink, when set, receives a copy of the series after the CSV files
	Sink CatalogSink
}

// RunResult is what a finished run produced
type RunResult struct {
	RunID      string                    `json:"run_id"`
	Indicators []domain.ExtractionResult `json:"indicators"`
	Themes     []domain.ThemeTable       `json:"themes"`
	Files      []string                  `json:"files"`
	Manifest   *RunManifest              `json:"manifest"`
	Duration   time.Duration             `json:"duration"`
}

// Pipeline runs extract, assemble and write over one catalog
type Pipeline struct {
	paths    *config.Paths
	catalog  *config.Catalog
	steps    []Step
	write    *WriteStep
	progress io.Writer
	logger   *slog.Logger
	tracer   *RunTracer

	mu      sync.Mutex
	current *ProgressTracker
}

// NewPipeline wires the stages of a run
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Paths == nil {
		return nil, errors.New("pipeline: paths are required")
	}
	if opts.Catalog == nil {
		opts.Catalog = config.DefaultCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	manifestFile := opts.Output.ManifestFile
	if manifestFile == "" {
		manifestFile = config.DefaultManifestFile
	}

	logger := opts.Logger.With(slog.String("component", "pipeline"))
	tracer := NewRunTracer(opts.Metrics)

	write := NewWriteStep(WriteStepOptions{
		Writer:       exporter.NewCSVWriter(opts.Paths.OutputDir, opts.Output.BOMPrefix, opts.Logger),
		Files:        files.NewManager(opts.Paths.OutputDir),
		Sink:         opts.Sink,
		ManifestFile: manifestFile,
		Workbook:     opts.Output.Workbook,
	}, tracer, logger)

	return &Pipeline{
		paths:   opts.Paths,
		catalog: opts.Catalog,
		steps: []Step{
			NewExtractStep(dataprocessing.NewExtractor(opts.Paths.DataDir, opts.Finder, opts.Logger), tracer, logger),
			NewAssembleStep(logger),
			write,
		},
		write:    write,
		progress: opts.Progress,
		logger:   logger,
		tracer:   tracer,
	}, nil
}

// Catalog returns the catalog the pipeline runs
func (p *Pipeline) Catalog() *config.Catalog {
	return p.catalog
}

// Run executes one run. The returned result is non-nil even on failure and
// carries the manifest describing how far the run got.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	runID := infrastructure.NewRunID()
	ctx = infrastructure.EnsureTraceID(infrastructure.WithRunID(ctx, runID))

	ctx, span := p.tracer.TraceRun(ctx, runID)

	progress := NewProgressTracker(p.progress, len(p.catalog.Indicators))
	p.mu.Lock()
	p.current = progress
	p.mu.Unlock()

	state := &RunState{
		RunID:    runID,
		Catalog:  p.catalog,
		Manifest: NewRunManifest(runID, p.paths.DataDir, p.paths.OutputDir),
		Progress: progress,
	}

	p.logger.InfoContext(ctx, "run started",
		slog.String("data_dir", p.paths.DataDir),
		slog.String("output_dir", p.paths.OutputDir),
		slog.Int("indicators", len(p.catalog.Indicators)),
		slog.Int("themes", len(p.catalog.Themes)))

	err := p.execute(ctx, state)
	if err == nil {
		state.Manifest.Complete()
		err = p.write.finalize(ctx, state)
	} else if ferr := p.write.finalize(ctx, state); ferr != nil {
		p.logger.WarnContext(ctx, "failed to record failed run", slog.String("error", ferr.Error()))
	}

	result := &RunResult{
		RunID:      runID,
		Indicators: state.Results,
		Themes:     state.Themes,
		Files:      state.Files,
		Manifest:   state.Manifest,
		Duration:   time.Since(start),
	}

	p.tracer.EndRun(ctx, span, start, err)
	if err != nil {
		p.logger.ErrorContext(ctx, "run failed", slog.String("error", err.Error()))
		return result, err
	}

	p.logger.InfoContext(ctx, "run completed",
		slog.Int("files", len(result.Files)),
		slog.Int("degraded", len(state.Manifest.Degraded())),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, state *RunState) error {
	for _, step := range p.steps {
		stepCtx, span := p.tracer.TraceStage(ctx, state.RunID, step.ID())
		state.Manifest.RecordStageStart(step.ID(), step.Name())
		started := time.Now()

		err := step.Execute(stepCtx, state)
		p.tracer.EndStage(stepCtx, span, step.ID(), started, err)
		if err != nil {
			state.Manifest.RecordStageFailure(step.ID(), err)
			return err
		}
		state.Manifest.RecordStageCompletion(step.ID(), stageMetadata(step.ID(), state))
	}
	return nil
}

func stageMetadata(stageID string, state *RunState) map[string]interface{} {
	switch stageID {
	case StageExtract:
		ok := 0
		for _, r := range state.Results {
			if r.OK() {
				ok++
			}
		}
		return map[string]interface{}{"indicators": len(state.Results), "ok": ok}
	case StageAssemble:
		return map[string]interface{}{"themes": len(state.Themes)}
	case StageWrite:
		return map[string]interface{}{"files": len(state.Files)}
	}
	return nil
}

// Progress returns the progress of the latest run, if one was started
func (p *Pipeline) Progress() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Snapshot{}, false
	}
	return p.current.GetProgress(), true
}
