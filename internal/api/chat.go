package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/repolens/repolens/internal/chat"
	"github.com/repolens/repolens/internal/session"
)

// apiSessionPrefix names sessions auto-created on /chat when the request
// carries no usable session ID.
const apiSessionPrefix = "api_session"

// maxChatBodyBytes bounds chat request bodies.
const maxChatBodyBytes = 1 << 20

// ChatRunner is the agent behavior the chat handler depends on. Defined
// here, by the consumer, so tests can substitute a stub for *chat.Agent.
type ChatRunner interface {
	ExecuteStream(ctx context.Context, sessionID uuid.UUID, input string, callback chat.StreamCallback) (*chat.Response, error)
}

// ChatRequest is the payload of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is the reply of POST /chat.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// chatHandler serves the conversational endpoints.
type chatHandler struct {
	logger   *slog.Logger
	runner   ChatRunner
	sessions *session.Store
}

// resolveSession maps the request's session ID onto a live session. An
// absent, unparseable, or unknown ID creates a fresh session rather than
// failing the request, so clients can open a conversation with a bare
// first message.
func (h *chatHandler) resolveSession(ctx context.Context, rawID string) (uuid.UUID, error) {
	if id, err := uuid.Parse(strings.TrimSpace(rawID)); err == nil {
		if _, err := h.sessions.Session(ctx, id); err == nil {
			return id, nil
		}
	}

	sess, err := h.sessions.Create(ctx, session.DefaultName(apiSessionPrefix))
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating session: %w", err)
	}
	h.logger.Info("auto-created chat session", "session_id", sess.ID, "session_name", sess.Name)
	return sess.ID, nil
}

// send handles POST /chat (synchronous).
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "message is required")
		return
	}

	ctx := r.Context()
	sessionID, err := h.resolveSession(ctx, req.SessionID)
	if err != nil {
		h.logger.Error("resolving chat session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not resolve session")
		return
	}

	resp, err := h.runner.ExecuteStream(ctx, sessionID, req.Message, nil)
	if err != nil {
		h.logger.Error("chat execution failed", "session_id", sessionID, "error", err)
		status, code := executionStatus(err)
		writeError(w, status, code, "the model runtime could not process the message")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: sessionID.String(),
		Reply:     resp.FinalText,
	})
}

// executionStatus maps agent execution errors to an HTTP status and code.
func executionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case errors.Is(err, chat.ErrInvalidSession):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_unavailable"
	default:
		return http.StatusBadGateway, "upstream_unavailable"
	}
}

// SSE event types for chat streaming.
const (
	eventChunk = "chunk" // partial response text
	eventDone  = "done"  // stream completed successfully
	eventError = "error" // error occurred during streaming
)

// chunkPayload is the SSE data payload for streaming text chunks.
type chunkPayload struct {
	Text string `json:"text"`
}

// donePayload is the SSE data payload when streaming completes.
type donePayload struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// toolEventPayload is the SSE data payload for tool lifecycle events.
type toolEventPayload struct {
	Tool  string `json:"tool"`
	Phase string `json:"phase"`
}

// sseEmitter forwards tool lifecycle events onto the SSE stream.
// Write failures are swallowed: a dead connection surfaces on the next
// chunk write anyway.
type sseEmitter struct {
	w       io.Writer
	flusher http.Flusher
}

func (e *sseEmitter) OnToolStart(name string) {
	_ = writeEvent(e.w, e.flusher, "tool", toolEventPayload{Tool: name, Phase: "start"})
}

func (e *sseEmitter) OnToolComplete(name string) {
	_ = writeEvent(e.w, e.flusher, "tool", toolEventPayload{Tool: name, Phase: "complete"})
}

func (e *sseEmitter) OnToolError(name string) {
	_ = writeEvent(e.w, e.flusher, "tool", toolEventPayload{Tool: name, Phase: "error"})
}

// stream handles POST /chat/stream (SSE).
func (h *chatHandler) stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = writeEvent(w, flusher, eventError, errorDetail{Code: "invalid_input", Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		_ = writeEvent(w, flusher, eventError, errorDetail{Code: "invalid_input", Message: "message is required"})
		return
	}

	ctx := r.Context()
	sessionID, err := h.resolveSession(ctx, req.SessionID)
	if err != nil {
		h.logger.Error("resolving chat session", "error", err)
		_ = writeEvent(w, flusher, eventError, errorDetail{Code: "internal_error", Message: "could not resolve session"})
		return
	}

	h.logger.Debug("SSE stream started", "session_id", sessionID)

	// Tool lifecycle events ride the same SSE stream as text chunks.
	ctx = toolEventContext(ctx, &sseEmitter{w: w, flusher: flusher})

	callback := func(cbCtx context.Context, chunk *ai.ModelResponseChunk) error {
		if chunk == nil {
			return nil
		}
		for _, part := range chunk.Content {
			if part.Text == "" {
				continue
			}
			if err := writeEvent(w, flusher, eventChunk, chunkPayload{Text: part.Text}); err != nil {
				return err // write failure usually means connection closed
			}
		}
		return nil
	}

	resp, err := h.runner.ExecuteStream(ctx, sessionID, req.Message, callback)
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Info("client disconnected", "session_id", sessionID)
			return
		}
		_, code := executionStatus(err)
		_ = writeEvent(w, flusher, eventError, errorDetail{Code: code, Message: err.Error()})
		return
	}

	_ = writeEvent(w, flusher, eventDone, donePayload{
		SessionID: sessionID.String(),
		Reply:     resp.FinalText,
	})
	h.logger.Debug("SSE stream completed", "session_id", sessionID)
}

// writeEvent writes a single SSE event with JSON-encoded data.
// SSE format: "event: <type>\ndata: <json>\n\n"
func writeEvent[T any](w io.Writer, flusher http.Flusher, event string, data T) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	flusher.Flush()
	return nil
}
