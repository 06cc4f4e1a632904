// Package http exposes the tracker status API.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"teleprompter-tracker/internal/app"
	"teleprompter-tracker/internal/observability"
	"teleprompter-tracker/internal/observability/metrics"
	"teleprompter-tracker/internal/service/tracker"
)

// TrackerView is the part of a tracker the status API reads and steers.
type TrackerView interface {
	ID() string
	Position() tracker.Position
	IsRunning() bool
	JumpTo(index int) bool
}

type positionResponse struct {
	TrackerID string           `json:"trackerId"`
	Running   bool             `json:"running"`
	Position  tracker.Position `json:"position"`
}

type jumpRequest struct {
	Index *int `json:"index"`
}

// NewRouter constructs the HTTP router for the service. t may be nil while
// no tracker is loaded; the service then reports not ready. /v1/ws is only
// served with a hub.
func NewRouter(application *app.Application, t TrackerView, hub *Hub) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestMetrics(metrics.DefaultMetrics))

	r.Handle("/metrics", promhttp.Handler())

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if application == nil || t == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1/position", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			if t == nil {
				writeError(w, http.StatusServiceUnavailable, "no tracker loaded")
				return
			}
			writeJSON(w, http.StatusOK, snapshot(t))
		})
		r.Post("/jump", func(w http.ResponseWriter, req *http.Request) {
			if t == nil {
				writeError(w, http.StatusServiceUnavailable, "no tracker loaded")
				return
			}
			var body jumpRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Index == nil {
				writeError(w, http.StatusBadRequest, "body must be {\"index\": <token index>}")
				return
			}
			if !t.JumpTo(*body.Index) {
				writeError(w, http.StatusConflict, "script is empty")
				return
			}
			writeJSON(w, http.StatusOK, snapshot(t))
		})
	})

	if hub != nil {
		r.Get("/v1/ws", hub.ServeWS)
	}

	return r
}

func snapshot(t TrackerView) positionResponse {
	return positionResponse{
		TrackerID: t.ID(),
		Running:   t.IsRunning(),
		Position:  t.Position(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
