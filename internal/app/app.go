package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/UdayIND/MC3-Summit/internal/config"
	"github.com/UdayIND/MC3-Summit/internal/errors"
	"github.com/UdayIND/MC3-Summit/internal/files"
	customMiddleware "github.com/UdayIND/MC3-Summit/internal/middleware"
	"github.com/UdayIND/MC3-Summit/internal/services"
	handlers "github.com/UdayIND/MC3-Summit/internal/transport/http"
)

// Application is the HTTP server of mc3server. It serves the results of the
// latest pipeline run and can trigger new runs.
type Application struct {
	Config        *config.Config
	Runtime       *Runtime
	Router        *chi.Mux
	Server        *http.Server
	ReportService *services.ReportService
	HealthService *services.HealthService
	Logger        *slog.Logger
}

// NewApplication wires services, handlers and the router over rt
func NewApplication(rt *Runtime) (*Application, error) {
	if rt == nil || rt.Pipeline == nil {
		return nil, fmt.Errorf("application: runtime is not initialized")
	}

	reports := services.NewReportService(
		rt.Pipeline,
		files.NewManager(rt.Paths.OutputDir),
		rt.Config.Output.ManifestFile,
		rt.Logger,
	)
	if rt.Store != nil {
		reports.WithHistory(rt.Store)
	}

	a := &Application{
		Config:        rt.Config,
		Runtime:       rt,
		ReportService: reports,
		HealthService: services.NewHealthService(config.AppVersion, rt.Paths, reports, rt.Logger),
		Logger:        rt.Logger.With(slog.String("component", "app")),
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := errors.NewErrorHandler(a.Logger, a.isDevelopmentMode())

	// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.Runtime.OTel, a.Runtime.Metrics)
	if err != nil {
		a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(errors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
	// the write timeout bounds POST /runs as well
	r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		Logger:         a.Logger,
	}))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Get(config.HealthEndpoint, health.HealthCheck)
	r.Get(config.HealthEndpoint+"/ready", health.ReadinessCheck)

	r.Route(config.APIBasePath, func(r chi.Router) {
		if rl := a.Config.Server.RateLimit; rl.Enabled && rl.RPS > 0 {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}
		r.Mount("/", handlers.NewReportHandler(a.ReportService, a.Logger, errorHandler).Routes())
	})

	if a.Runtime.OTel != nil && a.Runtime.OTel.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.Runtime.OTel.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) isDevelopmentMode() bool {
	return a.Config.Telemetry.Environment == "development"
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// RunPipeline executes one run through the report service so that its
// result is served. A failed run is logged and returned.
func (a *Application) RunPipeline(ctx context.Context) error {
	result, err := a.ReportService.Run(ctx)
	if err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "Initial run complete",
		slog.String("run_id", result.RunID),
		slog.Int("files", len(result.Files)),
		slog.Duration("duration", result.Duration))
	return nil
}

// Start begins serving on listener (or on the configured port when nil).
// A serve error cancels the application context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc, listener net.Listener) error {
	if listener == nil {
		l, err := net.Listen("tcp", a.Server.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
		}
		listener = l
	}

	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", listener.Addr().String()))

	go func() {
		if err := a.Server.Serve(listener); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the server and releases the runtime
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.Runtime.Close(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error releasing runtime", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run performs the initial pipeline run, then serves until interrupted.
// A failed initial run is logged; the server still starts so the manifest
// of the failure can be inspected.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.Runtime.Preflight(); err != nil {
		a.Logger.WarnContext(ctx, "Preflight failed", slog.String("error", err.Error()))
	}

	runStart := time.Now()
	if err := a.RunPipeline(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Initial run failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(runStart)))
	}

	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", listener.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.Server.Serve(listener); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(context.Background(), "Stopping server")
		return a.Stop(context.Background())
	})

	return g.Wait()
}
