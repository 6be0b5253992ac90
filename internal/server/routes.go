package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// System
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// Events
	mux.HandleFunc("/api/events", s.app.EventHandler.ListHandler)
	mux.HandleFunc("/api/events/", s.app.EventHandler.GetHandler) // /api/events/{id} or /api/events/?id=
	mux.HandleFunc("/api/stats", s.app.EventHandler.StatsHandler)

	// Pipeline runs
	mux.HandleFunc("/api/runs", s.app.RunHandler.ListRunsHandler)
	mux.HandleFunc("/api/runs/last", s.app.RunHandler.LastRunHandler)
	mux.HandleFunc("/api/runs/trigger", s.handleTriggerRoute)
	mux.HandleFunc("/api/scheduler/status", s.app.RunHandler.SchedulerStatusHandler)

	if s.app.Metrics != nil {
		mux.Handle("/metrics", s.app.Metrics.Handler())
	}

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleTriggerRoute starts a run on POST; GET reports scheduler state
func (s *Server) handleTriggerRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"POST": s.app.RunHandler.TriggerHandler,
		"GET":  s.app.RunHandler.SchedulerStatusHandler,
	})
}
