package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/UdayIND/MC3-Summit/internal/config"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	reports   *ReportService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, paths *config.Paths, reports *ReportService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		reports:   reports,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check", slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports "ready" once the data directory is readable and a
// run has completed
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	services := map[string]interface{}{
		"data_dir": hs.checkDir(hs.paths.DataDir),
		"pipeline": hs.checkPipeline(),
	}

	status := "ready"
	for _, s := range services {
		if s.(ServiceHealth).Status != "ok" {
			status = "not_ready"
		}
	}

	hs.logger.DebugContext(ctx, "readiness check", slog.String("status", status))
	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  services,
	}
}

func (hs *HealthService) checkDir(dir string) ServiceHealth {
	info, err := os.Stat(dir)
	if err != nil {
		return ServiceHealth{Status: "error", Message: err.Error()}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "error", Message: dir + " is not a directory"}
	}
	return ServiceHealth{Status: "ok"}
}

func (hs *HealthService) checkPipeline() ServiceHealth {
	status := hs.reports.Status()
	if status.LastRunID == "" {
		if status.Running {
			return ServiceHealth{Status: "starting", Message: "first run in progress"}
		}
		return ServiceHealth{Status: "error", Message: ErrNoRun.Error()}
	}
	return ServiceHealth{Status: "ok", Message: "last run " + status.LastRunID}
}
