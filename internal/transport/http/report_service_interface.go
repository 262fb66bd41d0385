package http

import (
	"context"

	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/internal/operations"
	"github.com/UdayIND/MC3-Summit/internal/services"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// ReportServiceInterface is what the report handler needs from the service layer
type ReportServiceInterface interface {
	Run(ctx context.Context) (*operations.RunResult, error)
	Status() services.RunStatus
	Themes() ([]services.ThemeInfo, error)
	Theme(name string) (domain.ThemeTable, error)
	Indicators() ([]operations.IndicatorStatus, error)
	Indicator(ctx context.Context, name string) (domain.ExtractionResult, error)
	Manifest(ctx context.Context) (*operations.RunManifest, error)
	Outputs() ([]files.FileInfo, error)
}

var _ ReportServiceInterface = (*services.ReportService)(nil)
