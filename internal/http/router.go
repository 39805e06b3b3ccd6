package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"caption-timing-service/internal/app"
	"caption-timing-service/internal/models"
	"caption-timing-service/internal/observability"
	"caption-timing-service/internal/service/script"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// timelineRequest is the body of POST /v1/timelines. The caller supplies
// the narration text plus either an audio file to probe and transcribe or
// a known audio duration for pure estimation.
type timelineRequest struct {
	Text                 string  `json:"text"`
	AudioPath            string  `json:"audio_path"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger())

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/timelines", resolveTimeline(application))
	})

	return r
}

// resolveTimeline handles POST /v1/timelines.
func resolveTimeline(application *app.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timelineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		text := script.Clean(req.Text)
		if strings.TrimSpace(text) == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		var timeline *models.Timeline
		switch {
		case req.AudioPath != "":
			timeline = application.Resolver.Resolve(r.Context(), req.AudioPath, text)
		case req.AudioDurationSeconds > 0:
			timeline = application.Resolver.EstimateOnly(text, req.AudioDurationSeconds)
		default:
			writeError(w, http.StatusBadRequest, "audio_path or audio_duration_seconds is required")
			return
		}

		writeJSON(w, http.StatusOK, timeline)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
