package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sritampatnaik/sritam-chatbot/internal/agent"
	"github.com/sritampatnaik/sritam-chatbot/internal/middleware"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
	"github.com/sritampatnaik/sritam-chatbot/pkg/metrics"
)

// ChatHandler handles the conversational booking endpoint.
type ChatHandler struct {
	orchestrator *agent.Orchestrator
	store        *store.Store
	logger       *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orch *agent.Orchestrator, st *store.Store, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orch,
		store:        st,
		logger:       log,
	}
}

// Chat handles POST /api/v1/chat. The request carries the full prior
// message sequence ending with the new user message; the assistant's reply
// is streamed back as SSE events.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Messages) == 0 || req.Messages[len(req.Messages)-1].Role != model.RoleUser {
		writeError(w, http.StatusBadRequest, "messages must end with a user message")
		return
	}
	if err := middleware.ValidateMessageContent(req.Messages[len(req.Messages)-1].Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// An existing conversation can only be continued by its owner.
	if existing, err := h.store.GetChat(ctx, req.ConversationID); err == nil {
		if existing.GuestID != guestID {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("failed to load chat", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sink := &sseSink{w: w, flusher: flusher, ctx: ctx}

	err := h.orchestrator.Respond(ctx, req.ConversationID, guestID, req.Messages, sink)
	if err != nil {
		h.logger.Error("chat exchange failed",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    "stream_error",
			Message: "The assistant is unavailable right now. Please try again.",
		})
		return
	}

	sendSSEEvent(w, flusher, "done", map[string]bool{"success": true})
}

// Delete handles DELETE /api/v1/chat/{id}. Removes the conversation when
// the authenticated guest owns it.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chat, err := h.store.GetChat(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && chat.GuestID != guestID) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		h.logger.Error("failed to load chat", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}

	if err := h.store.DeleteChat(ctx, conversationID); err != nil {
		h.logger.Error("failed to delete chat", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sseSink adapts the SSE response stream to the orchestrator's sink.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
}

func (s *sseSink) checkDisconnect() error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return nil
	}
}

func (s *sseSink) Token(token string, index int) error {
	if err := s.checkDisconnect(); err != nil {
		return err
	}
	return sendSSEEvent(s.w, s.flusher, "token", &model.TokenEvent{
		Token: token,
		Index: index,
	})
}

func (s *sseSink) ToolCall(ev model.ToolCallEvent) error {
	if err := s.checkDisconnect(); err != nil {
		return err
	}
	return sendSSEEvent(s.w, s.flusher, "tool_call", ev)
}

func (s *sseSink) ToolResult(ev model.ToolResultEvent) error {
	if err := s.checkDisconnect(); err != nil {
		return err
	}
	return sendSSEEvent(s.w, s.flusher, "tool_result", ev)
}

func (s *sseSink) Complete(msg model.ChatMessage) error {
	return sendSSEEvent(s.w, s.flusher, "message_complete", &model.MessageCompleteEvent{
		Message: msg,
	})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
