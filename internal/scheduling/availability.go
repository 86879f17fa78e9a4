// Package scheduling computes slot availability and commits bookings
// against the admin calendar.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sritampatnaik/sritam-chatbot/internal/gcal"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
	"github.com/sritampatnaik/sritam-chatbot/pkg/metrics"
)

var (
	// ErrCalendarUnavailable indicates a transient calendar provider
	// failure; the caller should ask the user to try again.
	ErrCalendarUnavailable = errors.New("scheduling: calendar unavailable")

	// ErrSlotTaken indicates the requested slot is no longer free.
	ErrSlotTaken = errors.New("scheduling: slot no longer available")

	// ErrValidation indicates malformed booking input.
	ErrValidation = errors.New("scheduling: invalid booking request")
)

// Hours describes the bookable window of a working day.
type Hours struct {
	StartHour   int
	EndHour     int
	SlotMinutes int
	Location    *time.Location
}

// SlotDuration returns the configured slot length.
func (h Hours) SlotDuration() time.Duration {
	return time.Duration(h.SlotMinutes) * time.Minute
}

// Engine derives free slots for a day from the calendar's busy intervals.
type Engine struct {
	cal    gcal.API
	hours  Hours
	logger *logger.Logger
}

// NewEngine creates an availability engine over the given calendar.
func NewEngine(cal gcal.API, hours Hours, log *logger.Logger) *Engine {
	return &Engine{
		cal:    cal,
		hours:  hours,
		logger: log,
	}
}

// Hours returns the engine's business-hours configuration.
func (e *Engine) Hours() Hours {
	return e.hours
}

// AvailableSlots generates every slot-aligned interval between the workday
// boundaries of the given day and keeps those free of any busy interval.
// Slots are half-open [start, end); a slot conflicts with a busy interval
// when start < busy.end and end > busy.start. The result is chronological
// and recomputed on every call.
func (e *Engine) AvailableSlots(day time.Time, busy []model.BusyInterval) []model.Slot {
	day = day.In(e.hours.Location)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), e.hours.StartHour, 0, 0, 0, e.hours.Location)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), e.hours.EndHour, 0, 0, 0, e.hours.Location)

	slots := []model.Slot{}
	step := e.hours.SlotDuration()

	for start := dayStart; !start.Add(step).After(dayEnd); start = start.Add(step) {
		slot := model.Slot{Start: start, End: start.Add(step)}

		conflict := false
		for _, b := range busy {
			if slot.Overlaps(b) {
				conflict = true
				break
			}
		}

		if !conflict {
			slots = append(slots, slot)
		}
	}

	return slots
}

// DayAvailability fetches busy intervals for the civil day and returns the
// free slots. A fully busy day yields an empty slice, not an error.
func (e *Engine) DayAvailability(ctx context.Context, day time.Time) ([]model.Slot, error) {
	day = day.In(e.hours.Location)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, e.hours.Location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	busy, err := e.cal.FreeBusy(ctx, dayStart, dayEnd)
	if err != nil {
		metrics.RecordAvailabilityQuery("error")
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}

	metrics.RecordAvailabilityQuery("success")
	return e.AvailableSlots(day, busy), nil
}
