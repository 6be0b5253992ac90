package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventHandler serves the stored event records read-only
type EventHandler struct {
	events interfaces.EventStorage
	logger arbor.ILogger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(events interfaces.EventStorage, logger arbor.ILogger) *EventHandler {
	return &EventHandler{
		events: events,
		logger: logger,
	}
}

// ListHandler handles GET /api/events?search=&location=&status=&limit=&skip=
func (h *EventHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	q := r.URL.Query()
	status := strings.ToLower(strings.TrimSpace(q.Get("status")))
	switch status {
	case "", "upcoming", "ended", "ongoing":
	default:
		WriteError(w, http.StatusBadRequest, "status must be one of upcoming, ended, ongoing")
		return
	}

	query := &interfaces.EventQuery{
		Search:   q.Get("search"),
		Location: q.Get("location"),
		Status:   status,
		Limit:    QueryInt(r, "limit", defaultEventLimit, maxEventLimit),
		Skip:     QueryInt(r, "skip", 0, 0),
	}

	events, err := h.events.QueryEvents(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to query events")
		WriteError(w, http.StatusInternalServerError, "Failed to query events")
		return
	}
	if events == nil {
		events = []*models.EventRecord{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  query.Limit,
		"skip":   query.Skip,
	})
}

// GetHandler handles GET /api/events/{id}. Ids containing slashes (detail
// URLs of browser-only records) are passed as GET /api/events/?id={id}.
func (h *EventHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/events/")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Event id is required")
		return
	}

	event, err := h.events.GetEvent(r.Context(), id)
	if errors.Is(err, interfaces.ErrEventNotFound) {
		WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("external_id", id).Msg("Failed to get event")
		WriteError(w, http.StatusInternalServerError, "Failed to get event")
		return
	}

	WriteJSON(w, http.StatusOK, event)
}

// StatsHandler handles GET /api/stats
func (h *EventHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx := r.Context()
	total, err := h.events.CountEvents(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count events")
		WriteError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	bySource := make(map[string]int)
	for _, source := range []models.Source{models.SourceAPI, models.SourceWeb} {
		count, err := h.events.CountBySource(ctx, source)
		if err != nil {
			h.logger.Error().Err(err).Str("source", string(source)).Msg("Failed to count events by source")
			WriteError(w, http.StatusInternalServerError, "Failed to count events")
			return
		}
		bySource[string(source)] = count
	}

	upcoming, err := h.events.QueryEvents(ctx, &interfaces.EventQuery{Status: "upcoming"})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count upcoming events")
		WriteError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total_events":    total,
		"by_source":       bySource,
		"upcoming_events": len(upcoming),
	})
}
