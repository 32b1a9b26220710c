package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

// Trigger queues sync runs and reports the latest one.
type Trigger interface {
	Trigger() bool
	Last() (*domain.SyncRun, error)
}

type SyncHandler struct {
	trigger Trigger
}

func NewSyncHandler(trigger Trigger) *SyncHandler {
	return &SyncHandler{trigger: trigger}
}

type triggerResponse struct {
	Status string `json:"status"`
}

// Run queues a sync run. Runs are serialised by the scheduler, so a request
// arriving while one is already queued is folded into it.
func (h *SyncHandler) Run(c echo.Context) error {
	status := "queued"
	if !h.trigger.Trigger() {
		status = "already_queued"
	}
	return c.JSON(http.StatusAccepted, triggerResponse{Status: status})
}

// Last returns the most recent run report. A failed run is returned as its
// error so the API error handler can map the failing stage to a status.
func (h *SyncHandler) Last(c echo.Context) error {
	run, err := h.trigger.Last()
	if err != nil {
		return fmt.Errorf("last sync run: %w", err)
	}
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no sync run yet")
	}
	return c.JSON(http.StatusOK, run)
}
