package http

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "github.com/UdayIND/MC3-Summit/internal/errors"
	"github.com/UdayIND/MC3-Summit/internal/operations"
)

var namePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ReportHandler serves themes, indicators and run metadata
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/themes", h.ListThemes)
	r.Get("/themes/{name}", h.GetTheme)
	r.Get("/indicators", h.ListIndicators)
	r.Get("/indicators/{name}", h.GetIndicator)
	r.Get("/manifest", h.GetManifest)
	r.Get("/outputs", h.ListOutputs)

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", h.StartRun)
		r.Get("/status", h.RunStatus)
	})

	return r
}

// ListThemes handles GET /themes
func (h *ReportHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.service.Themes()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"themes": themes,
		"count":  len(themes),
	})
}

// GetTheme handles GET /themes/{name}
func (h *ReportHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	name, ok := h.nameParam(w, r)
	if !ok {
		return
	}
	theme, err := h.service.Theme(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, theme)
}

// ListIndicators handles GET /indicators
func (h *ReportHandler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.service.Indicators()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"indicators": indicators,
		"count":      len(indicators),
	})
}

// GetIndicator handles GET /indicators/{name}
func (h *ReportHandler) GetIndicator(w http.ResponseWriter, r *http.Request) {
	name, ok := h.nameParam(w, r)
	if !ok {
		return
	}
	result, err := h.service.Indicator(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// GetManifest handles GET /manifest
func (h *ReportHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	manifest, err := h.service.Manifest(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, manifest)
}

// ListOutputs handles GET /outputs
func (h *ReportHandler) ListOutputs(w http.ResponseWriter, r *http.Request) {
	outputs, err := h.service.Outputs()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"files": outputs,
		"count": len(outputs),
	})
}

// StartRun handles POST /runs. The run executes within the request; a
// second request while one is active gets 409.
func (h *ReportHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "run requested")

	result, err := h.service.Run(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, runResponse(result))
}

// RunStatus handles GET /runs/status
func (h *ReportHandler) RunStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status())
}

func (h *ReportHandler) nameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if !namePattern.MatchString(name) {
		h.errorHandler.HandleError(w, r, apperrors.NewAppValidationError("invalid name: "+name))
		return "", false
	}
	return name, true
}

func runResponse(result *operations.RunResult) map[string]interface{} {
	return map[string]interface{}{
		"run_id":   result.RunID,
		"status":   result.Manifest.Clone().Status,
		"files":    result.Files,
		"duration": result.Duration.String(),
	}
}
