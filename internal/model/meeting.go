// Package model defines data structures for the booking assistant.
package model

import (
	"time"
)

// MeetingStatus represents the lifecycle state of a meeting.
type MeetingStatus string

const (
	MeetingStatusConfirmed MeetingStatus = "confirmed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// Meeting represents a booked meeting on the admin's calendar.
type Meeting struct {
	ID         string        `json:"id"`
	GuestID    string        `json:"guest_id"`
	Title      string        `json:"title"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   string        `json:"duration"`
	GuestName  string        `json:"guest_name"`
	GuestEmail string        `json:"guest_email"`
	Status     MeetingStatus `json:"status"`
	EventID    string        `json:"event_id,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Slot is a bookable interval within business hours. Slots are half-open
// [Start, End) and always span exactly the configured slot duration.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BusyInterval is a time range already occupied on the external calendar.
// Sourced fresh per request, never persisted.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the slot overlaps the busy interval, both treated
// as half-open intervals.
func (s Slot) Overlaps(b BusyInterval) bool {
	return s.Start.Before(b.End) && s.End.After(b.Start)
}
