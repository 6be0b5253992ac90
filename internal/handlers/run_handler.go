package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/scheduler"
)

// RunHandler exposes pipeline run statistics and manual triggering
type RunHandler struct {
	runs      interfaces.RunStorage
	scheduler interfaces.SchedulerService // nil when scheduling is disabled
	logger    arbor.ILogger
}

// NewRunHandler creates a new RunHandler
func NewRunHandler(runs interfaces.RunStorage, schedulerService interfaces.SchedulerService, logger arbor.ILogger) *RunHandler {
	return &RunHandler{
		runs:      runs,
		scheduler: schedulerService,
		logger:    logger,
	}
}

// LastRunHandler handles GET /api/runs/last
func (h *RunHandler) LastRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats, err := h.runs.GetLastRun(r.Context())
	if errors.Is(err, interfaces.ErrRunNotFound) {
		WriteError(w, http.StatusNotFound, "No run recorded yet")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load last run")
		WriteError(w, http.StatusInternalServerError, "Failed to load last run")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run":     stats,
		"summary": stats.ToMap(),
	})
}

// ListRunsHandler handles GET /api/runs?limit=
func (h *RunHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), QueryInt(r, "limit", 20, 200))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []*models.RunStats{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// TriggerHandler handles POST /api/runs/trigger
func (h *RunHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if h.scheduler == nil {
		WriteError(w, http.StatusServiceUnavailable, "Scheduler is not enabled")
		return
	}

	if err := h.scheduler.TriggerNow(); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, scheduler.ErrNotRunning) {
			WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().Msg("Pipeline run triggered via API")
	WriteStarted(w, "Pipeline run started")
}

// SchedulerStatusHandler handles GET /api/scheduler/status
func (h *RunHandler) SchedulerStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if h.scheduler == nil {
		WriteJSON(w, http.StatusOK, &interfaces.JobStatus{Enabled: false})
		return
	}
	WriteJSON(w, http.StatusOK, h.scheduler.GetStatus())
}
