package scheduling

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sritampatnaik/sritam-chatbot/internal/gcal"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
	"github.com/sritampatnaik/sritam-chatbot/pkg/metrics"
)

// ErrAlreadyCancelled indicates a cancel request for a meeting that was
// already cancelled; transitions out of cancelled do not exist.
var ErrAlreadyCancelled = errors.New("scheduling: meeting already cancelled")

// MeetingStore is the persistence surface the booking service needs.
type MeetingStore interface {
	CreateMeeting(ctx context.Context, m model.Meeting) error
	GetMeeting(ctx context.Context, id string) (model.Meeting, error)
	ListMeetingsByGuest(ctx context.Context, guestID string) ([]model.Meeting, error)
	UpdateMeetingStatus(ctx context.Context, id string, status model.MeetingStatus) error
}

// BookingRequest carries the validated inputs for one booking attempt.
type BookingRequest struct {
	GuestID    string
	GuestName  string
	GuestEmail string
	Start      time.Time
	Title      string
}

// Service books meetings: it re-verifies availability, creates the
// external calendar event, then persists the meeting record.
type Service struct {
	engine   *Engine
	cal      gcal.API
	meetings MeetingStore
	logger   *logger.Logger

	now func() time.Time
}

// NewService creates a booking service.
func NewService(engine *Engine, cal gcal.API, meetings MeetingStore, log *logger.Logger) *Service {
	return &Service{
		engine:   engine,
		cal:      cal,
		meetings: meetings,
		logger:   log,
		now:      time.Now,
	}
}

// Book validates and commits a booking. Availability is recomputed before
// the external event is created, defending against the gap between
// advisory display and commit. If the calendar insert fails, no meeting
// row is written. If the insert succeeds but persistence fails, the
// external event is deliberately NOT deleted; the inconsistency is logged
// for manual reconciliation instead of silently dropping a real calendar
// commitment.
func (s *Service) Book(ctx context.Context, req BookingRequest) (model.Meeting, error) {
	if err := s.validate(req); err != nil {
		metrics.RecordBooking("invalid")
		return model.Meeting{}, err
	}

	start := req.Start.In(s.engine.Hours().Location)
	end := start.Add(s.engine.Hours().SlotDuration())

	slots, err := s.engine.DayAvailability(ctx, start)
	if err != nil {
		metrics.RecordBooking("calendar_error")
		return model.Meeting{}, err
	}

	free := false
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			free = true
			break
		}
	}
	if !free {
		metrics.RecordBooking("slot_taken")
		return model.Meeting{}, fmt.Errorf("%w: %s", ErrSlotTaken, start.Format(time.RFC3339))
	}

	eventID, err := s.cal.InsertEvent(ctx, gcal.EventInput{
		Title:      req.Title,
		Start:      start,
		End:        end,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
	})
	if err != nil {
		metrics.RecordBooking("calendar_error")
		return model.Meeting{}, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}

	meeting := model.Meeting{
		ID:         uuid.New().String(),
		GuestID:    req.GuestID,
		Title:      req.Title,
		StartTime:  start,
		EndTime:    end,
		Duration:   fmt.Sprintf("%d minutes", s.engine.Hours().SlotMinutes),
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		Status:     model.MeetingStatusConfirmed,
		EventID:    eventID,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.meetings.CreateMeeting(ctx, meeting); err != nil {
		// The calendar event exists but the local record does not. Keep the
		// event: deleting it would silently lose a real commitment.
		metrics.RecordBooking("persist_failed")
		s.logger.Error("meeting persisted to calendar but not to store; manual reconciliation required",
			zap.String("event_id", eventID),
			zap.String("guest_email", req.GuestEmail),
			zap.Time("start", start),
			zap.Error(err),
		)
		return model.Meeting{}, fmt.Errorf("failed to persist meeting: %w", err)
	}

	metrics.RecordBooking("confirmed")
	s.logger.Info("meeting booked",
		zap.String("meeting_id", meeting.ID),
		zap.String("event_id", eventID),
		zap.Time("start", start),
	)

	return meeting, nil
}

// Get retrieves a meeting by id.
func (s *Service) Get(ctx context.Context, id string) (model.Meeting, error) {
	return s.meetings.GetMeeting(ctx, id)
}

// ListByGuest returns a guest's meetings, newest first.
func (s *Service) ListByGuest(ctx context.Context, guestID string) ([]model.Meeting, error) {
	return s.meetings.ListMeetingsByGuest(ctx, guestID)
}

// Cancel moves a confirmed meeting to cancelled and removes the external
// event best-effort. The transition is one-way.
func (s *Service) Cancel(ctx context.Context, id string) error {
	meeting, err := s.meetings.GetMeeting(ctx, id)
	if err != nil {
		return err
	}

	if meeting.Status == model.MeetingStatusCancelled {
		return ErrAlreadyCancelled
	}

	if err := s.meetings.UpdateMeetingStatus(ctx, id, model.MeetingStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel meeting: %w", err)
	}

	if meeting.EventID != "" {
		if err := s.cal.DeleteEvent(ctx, meeting.EventID); err != nil {
			s.logger.Warn("failed to delete calendar event for cancelled meeting",
				zap.String("meeting_id", id),
				zap.String("event_id", meeting.EventID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("meeting cancelled", zap.String("meeting_id", id))
	return nil
}

func (s *Service) validate(req BookingRequest) error {
	if strings.TrimSpace(req.GuestName) == "" {
		return fmt.Errorf("%w: guest name is required", ErrValidation)
	}
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.GuestEmail); err != nil {
		return fmt.Errorf("%w: invalid guest email", ErrValidation)
	}
	if req.Start.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrValidation)
	}

	hours := s.engine.Hours()
	start := req.Start.In(hours.Location)

	if start.Minute()%hours.SlotMinutes != 0 || start.Second() != 0 || start.Nanosecond() != 0 {
		return fmt.Errorf("%w: start time must align to the %d-minute slot grid", ErrValidation, hours.SlotMinutes)
	}

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), hours.StartHour, 0, 0, 0, hours.Location)
	dayEnd := time.Date(start.Year(), start.Month(), start.Day(), hours.EndHour, 0, 0, 0, hours.Location)
	if start.Before(dayStart) || start.Add(hours.SlotDuration()).After(dayEnd) {
		return fmt.Errorf("%w: start time is outside business hours", ErrValidation)
	}

	return nil
}
