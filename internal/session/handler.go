package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"terrain-streamer/internal/catalog"
	"terrain-streamer/internal/terrain"
)

// Handler exposes session HTTP endpoints using go-chi.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler returns a Handler that uses the given Service and Logger.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the session API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/catalog/schema", h.GetCatalogSchema)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Post("/", h.CreateSession)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/tick", h.Tick)
			r.Get("/segments", h.GetSegments)
			r.Get("/pool", h.GetPool)
			r.Post("/end", h.EndSession)
		})
	})
}

// TickResponse is the body of a tick reply. Errors lists invariant violations
// hit during the tick; the session keeps running.
type TickResponse struct {
	Snapshot
	Errors []string `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateSession handles POST /sessions.
// Body (all optional): {"id": "run-1", "seed": 7, "start_margin": -10, "end_margin": 20, "viewport": {"left": 0, "right": 80}}.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug("invalid session body", slog.String("error", err.Error()))
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.svc.Create(req)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, snap)
	case errors.Is(err, ErrSessionExists):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, ErrTooManySessions):
		h.writeError(w, http.StatusTooManyRequests, err)
	case errors.Is(err, ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	case snap.ID != "":
		// Created, but starting the stream failed.
		h.writeTickResult(w, http.StatusCreated, snap, err)
	default:
		h.log.Error("create session failed", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

// Tick handles POST /sessions/{session_id}/tick.
// Body: {"left": 120.5, "right": 200.5}.
func (h *Handler) Tick(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	var vp terrain.Viewport
	if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.svc.Tick(id, vp)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, TickResponse{Snapshot: snap})
	case errors.Is(err, ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrSessionEnded):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.writeTickResult(w, http.StatusOK, snap, err)
	}
}

// writeTickResult reports a tick that ran but hit stream errors. Invariant
// violations keep the given status; anything else is a server error.
func (h *Handler) writeTickResult(w http.ResponseWriter, status int, snap Snapshot, err error) {
	h.log.Error("tick failed",
		slog.String("session_id", string(snap.ID)),
		slog.String("error", err.Error()))
	if !IsInvariantViolation(err) {
		status = http.StatusInternalServerError
	}
	h.writeJSON(w, status, TickResponse{Snapshot: snap, Errors: errorList(err)})
}

// GetSession handles GET /sessions/{session_id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.svc.Snapshot(SessionID(chi.URLParam(r, "session_id")))
	if !ok {
		h.writeError(w, http.StatusNotFound, ErrSessionNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// GetSegments handles GET /sessions/{session_id}/segments.
func (h *Handler) GetSegments(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.svc.Snapshot(SessionID(chi.URLParam(r, "session_id")))
	if !ok {
		h.writeError(w, http.StatusNotFound, ErrSessionNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Segments)
}

// GetPool handles GET /sessions/{session_id}/pool.
func (h *Handler) GetPool(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.svc.Snapshot(SessionID(chi.URLParam(r, "session_id")))
	if !ok {
		h.writeError(w, http.StatusNotFound, ErrSessionNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Pool)
}

// EndSession handles POST /sessions/{session_id}/end. Ending twice is fine.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))
	if err := h.svc.End(id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.Error("end session failed", slog.String("session_id", string(id)), slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ListSessions handles GET /sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.List())
}

// GetCatalogSchema handles GET /catalog/schema.
func (h *Handler) GetCatalogSchema(w http.ResponseWriter, r *http.Request) {
	data, err := catalog.SchemaJSON()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("write response", slog.String("error", err.Error()))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func errorList(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, errorList(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
