package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/UdayIND/MC3-Summit/internal/services"
)

type stubHealth struct {
	ready bool
}

func (s stubHealth) HealthCheck(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: "ok", Timestamp: time.Now(), Version: "test"}
}

func (s stubHealth) ReadinessCheck(context.Context) services.HealthStatus {
	status := "not_ready"
	if s.ready {
		status = "ready"
	}
	return services.HealthStatus{Status: status, Timestamp: time.Now()}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		handle func(*HealthHandler) http.HandlerFunc
		want   int
	}{
		{"health", false, func(h *HealthHandler) http.HandlerFunc { return h.HealthCheck }, http.StatusOK},
		{"ready", true, func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck }, http.StatusOK},
		{"not ready", false, func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(stubHealth{ready: tt.ready}, quietLogger())
			rec := httptest.NewRecorder()
			tt.handle(h)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status"`)
		})
	}
}
