package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"voice-query-client/internal/app"
	"voice-query-client/internal/observability"
	"voice-query-client/internal/observability/metrics"
	"voice-query-client/internal/service/capture"
	"voice-query-client/internal/service/submission"
)

const readinessTimeout = 3 * time.Second

// NewRouter constructs the local control API for the client.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.Middleware(metrics.DefaultMetrics))

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := application.Client.Health(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	h := &handlers{app: application}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/state", h.state)
		r.Post("/recording/start", h.startRecording)
		r.Post("/recording/stop", h.stopRecording)
		r.Post("/submissions", h.submit)
		r.Get("/stream", h.stream)
	})

	return r
}

type handlers struct {
	app *app.Application
}

func (h *handlers) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Sink.Snapshot())
}

func (h *handlers) startRecording(w http.ResponseWriter, r *http.Request) {
	err := h.app.Capture.Start(r.Context())
	var capErr *capture.CapabilityError
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, h.app.Sink.Snapshot())
	case errors.Is(err, capture.ErrAlreadyRecording):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &capErr):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *handlers) stopRecording(w http.ResponseWriter, _ *http.Request) {
	if err := h.app.Capture.Stop(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.app.Sink.Snapshot())
}

// submit uploads a multipart "file" field through the same pipeline as a
// recording and answers with the processing result.
func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	if limit := h.app.Cfg.Capture.MaxAudioBytes; limit > 0 {
		// Slack for multipart framing.
		r.Body = http.MaxBytesReader(w, r.Body, limit+64*1024)
	}

	file, hdr, err := r.FormFile(submission.FormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The attempt outlives a client disconnect, like a browser upload.
	ctx := context.WithoutCancel(r.Context())
	result, err := h.app.Pipeline.SubmitUpload(ctx, hdr.Filename, hdr.Header.Get("Content-Type"), data)
	var subErr *submission.SubmissionError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, submission.ErrSuperseded):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &subErr):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
