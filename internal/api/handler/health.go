package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

// HealthHandler handles GET /health, the liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// LastRunFunc reports the most recent sync run.
type LastRunFunc func() (*domain.SyncRun, error)

// DependencyCheck pings one backing service.
type DependencyCheck func(ctx context.Context) error

// ReadinessHandler handles GET /health/ready.
// Ready means the last sync run succeeded and every configured backing
// service answers.
type ReadinessHandler struct {
	lastRun LastRunFunc
	checks  map[string]DependencyCheck
}

func NewReadinessHandler(lastRun LastRunFunc, checks map[string]DependencyCheck) *ReadinessHandler {
	return &ReadinessHandler{lastRun: lastRun, checks: checks}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	LastRun      *domain.SyncRun             `json:"last_run,omitempty"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.checks)+1)
	healthy := true

	run, err := h.lastRun()
	switch {
	case run == nil && err == nil:
		deps["sync"] = dependencyStatus{Status: "pending"}
		healthy = false
	case err != nil:
		deps["sync"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	default:
		deps["sync"] = dependencyStatus{Status: "ok"}
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		LastRun:      run,
		Dependencies: deps,
	})
}
