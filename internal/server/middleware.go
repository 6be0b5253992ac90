package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ternarybob/venator/internal/handlers"
)

const requestIDHeader = "X-Request-ID"

// withMiddleware wraps the router: request id, access log and metrics, CORS, panic recovery
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	handler = s.recoveryMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.accessMiddleware(handler)
	return handler
}

// accessMiddleware tags each request with an id, counts it per route and logs
// API traffic. Health checks and metric scrapes are counted but not logged.
func (s *Server) accessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := routeLabel(r.URL.Path)
		if s.app.Metrics != nil {
			s.app.Metrics.ObserveRequest(route, rw.statusCode)
		}
		if quietRoute(route) {
			return
		}

		logEvent := s.app.Logger.Debug()
		if rw.statusCode >= 500 {
			logEvent = s.app.Logger.Warn()
		}
		logEvent.
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("route", route).
			Int("status", rw.statusCode).
			Dur("duration", time.Since(start)).
			Msg("API request")
	})
}

// corsMiddleware opens the read API and the run trigger to dashboards on other origins
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a handler panic into a JSON 500 carrying the request id
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				requestID := w.Header().Get(requestIDHeader)
				s.app.Logger.Error().
					Str("request_id", requestID).
					Str("error", fmt.Sprintf("%v", rec)).
					Str("route", routeLabel(r.URL.Path)).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				handlers.WriteError(w, http.StatusInternalServerError, "internal error (request "+requestID+")")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// routeLabel maps a request path onto its registered route so event ids
// never become metric labels
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/events/"):
		return "/api/events/:id"
	case path == "/health", path == "/metrics", path == "/api/health", path == "/api/version",
		path == "/api/events", path == "/api/stats", path == "/api/runs", path == "/api/runs/last",
		path == "/api/runs/trigger", path == "/api/scheduler/status":
		return path
	case strings.HasPrefix(path, "/api/"):
		return "/api/*"
	default:
		return "other"
	}
}

func quietRoute(route string) bool {
	return route == "/health" || route == "/api/health" || route == "/metrics"
}

// responseWriter captures the status code written by the handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
