package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sritampatnaik/sritam-chatbot/internal/middleware"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/internal/scheduling"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
)

// MeetingHandler handles meeting lookup and cancellation.
type MeetingHandler struct {
	booking *scheduling.Service
	logger  *logger.Logger
}

// NewMeetingHandler creates a new meeting handler.
func NewMeetingHandler(booking *scheduling.Service, log *logger.Logger) *MeetingHandler {
	return &MeetingHandler{booking: booking, logger: log}
}

// List handles GET /api/v1/meetings.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)

	meetings, err := h.booking.ListByGuest(ctx, guestID)
	if err != nil {
		h.logger.Error("failed to list meetings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}

	if meetings == nil {
		meetings = []model.Meeting{}
	}
	writeJSON(w, http.StatusOK, meetings)
}

// Get handles GET /api/v1/meetings/{id}.
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	meeting, ok := h.ownedMeeting(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, meeting)
}

// Cancel handles POST /api/v1/meetings/{id}/cancel. Cancellation is
// one-way; a second cancel reports a conflict.
func (h *MeetingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	meeting, ok := h.ownedMeeting(w, r)
	if !ok {
		return
	}

	err := h.booking.Cancel(r.Context(), meeting.ID)
	switch {
	case errors.Is(err, scheduling.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "meeting is already cancelled")
	case err != nil:
		h.logger.Error("failed to cancel meeting", zap.String("meeting_id", meeting.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to cancel meeting")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *MeetingHandler) ownedMeeting(w http.ResponseWriter, r *http.Request) (model.Meeting, bool) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)
	meetingID := chi.URLParam(r, "id")

	if err := middleware.ValidateMeetingID(meetingID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.Meeting{}, false
	}

	meeting, err := h.booking.Get(ctx, meetingID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "meeting not found")
		return model.Meeting{}, false
	}
	if err != nil {
		h.logger.Error("failed to get meeting", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get meeting")
		return model.Meeting{}, false
	}

	if meeting.GuestID != guestID {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return model.Meeting{}, false
	}

	return meeting, true
}
