package httpapi

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"

	"github.com/forPelevin/ytclip/internal/logger"
	"github.com/forPelevin/ytclip/internal/ports"
	"github.com/forPelevin/ytclip/internal/types"
)

type clipUseCases interface {
	Setup() ports.SetupGate
	Clip(ctx context.Context, req types.ClipRequest) <-chan types.Event
}

type Handler struct {
	clips clipUseCases
	log   logger.Logger
}

// NewHandler wires HTTP handlers with the clip use case.
func NewHandler(clips clipUseCases, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{clips: clips, log: log}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetupStatus handles GET /api/setup.
func (h *Handler) SetupStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.clips.Setup().Status())
}

// CreateClip handles POST /api/clips. The job's events are streamed back as
// newline delimited JSON; the last line always carries the outcome. Closing
// the connection cancels the job.
//
// Only application/json bodies are accepted, so a browser cannot submit a
// job from another origin without passing the CORS preflight.
func (h *Handler) CreateClip(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r.Header.Get("Content-Type")) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: "Content-Type must be application/json"})
		return
	}

	gate := h.clips.Setup()
	if !gate.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Engine is not ready: " + gate.Status().Message})
		return
	}

	var req types.ClipRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for ev := range h.clips.Clip(r.Context(), req) {
		if err := enc.Encode(ev); err != nil {
			// Client went away; keep draining so the job can finish.
			h.log.Debugf("[JOB %s] write event: %v", ev.JobID, err)
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

const maxBodyBytes = 64 << 10

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
