package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sritampatnaik/sritam-chatbot/internal/middleware"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
)

// HistoryHandler handles conversation history endpoints.
type HistoryHandler struct {
	store  *store.Store
	logger *logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(st *store.Store, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{store: st, logger: log}
}

// List handles GET /api/v1/history. Returns the authenticated guest's
// conversations, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)

	chats, err := h.store.ListChatsByGuest(ctx, guestID)
	if err != nil {
		h.logger.Error("failed to list chats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	if chats == nil {
		chats = []model.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}
