package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/UdayIND/MC3-Summit/internal/config"
	"github.com/UdayIND/MC3-Summit/internal/infrastructure"
	"github.com/UdayIND/MC3-Summit/internal/operations"
	"github.com/UdayIND/MC3-Summit/internal/storage"
	"github.com/UdayIND/MC3-Summit/internal/validation"
)

// Runtime holds what both binaries need to run the pipeline: resolved
// paths, the source catalog, telemetry and the optional SQLite sink.
type Runtime struct {
	Config   *config.Config
	Paths    *config.Paths
	Catalog  *config.Catalog
	Logger   *slog.Logger
	OTel     *infrastructure.OTelProviders
	Metrics  *infrastructure.PipelineMetrics
	Pipeline *operations.Pipeline
	// Store is the SQLite catalog; nil unless output.sqlite_path is set
	Store *storage.CatalogStore

	db *storage.DB
}

// NewRuntime resolves paths against the working directory and wires the
// pipeline. progress receives the human-readable run lines.
func NewRuntime(cfg *config.Config, progress io.Writer, logger *slog.Logger) (*Runtime, error) {
	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, err
	}
	return NewRuntimeWithPaths(cfg, paths, progress, logger)
}

// NewRuntimeWithPaths is NewRuntime with already resolved paths
func NewRuntimeWithPaths(cfg *config.Config, paths *config.Paths, progress io.Writer, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	catalog, err := config.LoadCatalog(cfg.Paths.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load source catalog: %w", err)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromTelemetry(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	rt := &Runtime{
		Config:  cfg,
		Paths:   paths,
		Catalog: catalog,
		Logger:  logger,
		OTel:    providers,
		Metrics: metrics,
	}

	opts := operations.Options{
		Paths:    paths,
		Catalog:  catalog,
		Output:   cfg.Output,
		Progress: progress,
		Logger:   logger,
		Metrics:  metrics,
	}

	if cfg.Output.SQLitePath != "" {
		db, err := storage.Open(cfg.Output.SQLitePath)
		if err != nil {
			_ = providers.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to open catalog database: %w", err)
		}
		rt.db = db
		rt.Store = storage.NewCatalogStore(db)
		opts.Sink = rt.Store
		logger.Info("SQLite catalog enabled", slog.String("path", db.Path()))
	}

	pipeline, err := operations.NewPipeline(opts)
	if err != nil {
		_ = rt.Close(context.Background())
		return nil, err
	}
	rt.Pipeline = pipeline

	logger.Info("Runtime ready",
		slog.String("data_dir", paths.DataDir),
		slog.String("output_dir", paths.OutputDir),
		slog.Int("indicators", len(catalog.Indicators)),
		slog.Int("themes", len(catalog.Themes)))

	return rt, nil
}

// Preflight checks the data directory against the catalog. Missing and
// unrecognized sources are logged; they never stop a run.
func (rt *Runtime) Preflight() (*validation.Report, error) {
	v := validation.NewSourceValidator(rt.Paths.DataDir, rt.Logger)
	if err := v.ValidateDataDirectory(); err != nil {
		return nil, err
	}

	report := &validation.Report{Checks: v.CheckCatalog(rt.Catalog)}
	if missing := validation.Missing(report.Checks); len(missing) > 0 {
		rt.Logger.Warn("Some sources are not available",
			slog.Int("missing", len(missing)),
			slog.Int("total", len(report.Checks)))
	}

	unrecognized, err := v.Unrecognized(rt.Catalog)
	if err != nil {
		return nil, err
	}
	if len(unrecognized) > 0 {
		rt.Logger.Warn("Data directory holds files no source reads",
			slog.Any("files", unrecognized))
	}
	report.Unrecognized = unrecognized
	return report, nil
}

// Close releases the database and flushes telemetry
func (rt *Runtime) Close(ctx context.Context) error {
	var firstErr error
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close catalog database: %w", err)
		}
		rt.db = nil
		rt.Store = nil
	}
	if rt.OTel != nil {
		if err := rt.OTel.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to shut down OpenTelemetry: %w", err)
		}
	}
	return firstErr
}
