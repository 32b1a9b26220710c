package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/glauth-sync/internal/api/handler"
	"github.com/99minutos/glauth-sync/internal/api/middleware"
)

// RouterDeps carries what the serve-mode routes need.
type RouterDeps struct {
	Sync handler.Trigger
	// Checks are pinged by the readiness probe, keyed by dependency name.
	Checks    map[string]handler.DependencyCheck
	JWTSecret string
	Log       zerolog.Logger

	// Registerer and Gatherer default to the prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "glauth_sync",
		Registerer: deps.Registerer,
	}))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Sync.Last, deps.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: deps.Gatherer,
	}))

	// --- Sync trigger (admin only) ---
	if deps.JWTSecret == "" {
		deps.Log.Warn().Msg("JWT_SECRET not set, sync trigger endpoints disabled")
		return e
	}

	syncHandler := handler.NewSyncHandler(deps.Sync)
	admin := e.Group("/sync", middleware.Auth(deps.JWTSecret), middleware.RBAC("admin"))
	admin.POST("", syncHandler.Run)
	admin.GET("/last", syncHandler.Last)

	return e
}
