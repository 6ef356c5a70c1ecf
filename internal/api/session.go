package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/repolens/repolens/internal/session"
)

// sessionHandler serves the session CRUD endpoints.
type sessionHandler struct {
	logger *slog.Logger
	store  *session.Store
}

// CreateSessionRequest is the payload of POST /sessions.
type CreateSessionRequest struct {
	SessionName string `json:"session_name,omitempty"`
}

// createSession handles POST /sessions. An empty or absent body creates a
// session with a generated name.
func (h *sessionHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	sess, err := h.store.Create(r.Context(), req.SessionName)
	if err != nil {
		h.logger.Error("creating session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// listSessions handles GET /sessions, most recently active first.
func (h *sessionHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("listing sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// getSession handles GET /sessions/{id}.
func (h *sessionHandler) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	sess, err := h.store.Session(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.logger.Error("fetching session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not fetch session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// deleteSession handles DELETE /sessions/{id}.
func (h *sessionHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.logger.Error("deleting session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path segment, writing a 400 on failure.
func (h *sessionHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
