// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sritampatnaik/sritam-chatbot/internal/middleware"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
)

// GuestHandler handles guest session endpoints.
type GuestHandler struct {
	store      *store.Store
	jwtSecret  string
	sessionTTL time.Duration
	logger     *logger.Logger
}

// NewGuestHandler creates a new guest handler.
func NewGuestHandler(st *store.Store, jwtSecret string, sessionTTL time.Duration, log *logger.Logger) *GuestHandler {
	return &GuestHandler{
		store:      st,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		logger:     log,
	}
}

// Create handles POST /api/v1/guest. Idempotent per email: an existing
// guest is returned rather than duplicated.
func (h *GuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.GuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	guest, err := h.store.GetGuestByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		guest, err = h.store.CreateGuest(ctx, req.Email)
	}
	if err != nil {
		h.logger.Error("failed to create guest", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create guest")
		return
	}

	token, err := middleware.MintGuestToken(h.jwtSecret, guest.ID, guest.Email, h.sessionTTL)
	if err != nil {
		h.logger.Error("failed to mint guest token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create guest session")
		return
	}

	writeJSON(w, http.StatusOK, model.GuestResponse{
		GuestID: guest.ID,
		Email:   guest.Email,
		Token:   token,
	})
}
