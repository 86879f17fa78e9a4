package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
)

// fakeMeetingStore implements MeetingStore in memory.
type fakeMeetingStore struct {
	meetings  map[string]model.Meeting
	createErr error
}

func newFakeMeetingStore() *fakeMeetingStore {
	return &fakeMeetingStore{meetings: map[string]model.Meeting{}}
}

func (f *fakeMeetingStore) CreateMeeting(ctx context.Context, m model.Meeting) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.meetings[m.ID] = m
	return nil
}

func (f *fakeMeetingStore) GetMeeting(ctx context.Context, id string) (model.Meeting, error) {
	m, ok := f.meetings[id]
	if !ok {
		return model.Meeting{}, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeMeetingStore) ListMeetingsByGuest(ctx context.Context, guestID string) ([]model.Meeting, error) {
	var out []model.Meeting
	for _, m := range f.meetings {
		if m.GuestID == guestID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMeetingStore) UpdateMeetingStatus(ctx context.Context, id string, status model.MeetingStatus) error {
	m, ok := f.meetings[id]
	if !ok {
		return store.ErrNotFound
	}
	m.Status = status
	f.meetings[id] = m
	return nil
}

func newBookingService(t *testing.T, cal *fakeCalendar, meetings *fakeMeetingStore) *Service {
	t.Helper()
	engine := NewEngine(cal, testHours(), testLogger(t))
	return NewService(engine, cal, meetings, testLogger(t))
}

func validRequest(t *testing.T) BookingRequest {
	return BookingRequest{
		GuestID:    "guest-1",
		GuestName:  "Ada Lovelace",
		GuestEmail: "a@b.com",
		Start:      at(t, "2025-03-10 10:00"),
		Title:      "Sync",
	}
}

func TestBookSuccess(t *testing.T) {
	cal := &fakeCalendar{insertID: "evt-42"}
	meetings := newFakeMeetingStore()
	svc := newBookingService(t, cal, meetings)

	meeting, err := svc.Book(context.Background(), validRequest(t))

	require.NoError(t, err)
	assert.Equal(t, model.MeetingStatusConfirmed, meeting.Status)
	assert.Equal(t, "evt-42", meeting.EventID)
	assert.Equal(t, at(t, "2025-03-10 10:00"), meeting.StartTime)
	assert.Equal(t, at(t, "2025-03-10 10:30"), meeting.EndTime)
	assert.Equal(t, 30*time.Minute, meeting.EndTime.Sub(meeting.StartTime))
	assert.Equal(t, "30 minutes", meeting.Duration)

	// Round-trip through the store.
	stored, err := svc.Get(context.Background(), meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, meeting.StartTime, stored.StartTime)
	assert.Equal(t, meeting.EndTime, stored.EndTime)
	assert.Equal(t, model.MeetingStatusConfirmed, stored.Status)

	require.Len(t, cal.inserted, 1)
	assert.Equal(t, "Sync", cal.inserted[0].Title)
	assert.Equal(t, "a@b.com", cal.inserted[0].GuestEmail)
}

func TestBookSlotNoLongerAvailable(t *testing.T) {
	cal := &fakeCalendar{busy: []model.BusyInterval{
		{Start: at(t, "2025-03-10 10:00"), End: at(t, "2025-03-10 10:30")},
	}}
	meetings := newFakeMeetingStore()
	svc := newBookingService(t, cal, meetings)

	_, err := svc.Book(context.Background(), validRequest(t))

	require.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, cal.inserted, "no external event may be created")
	assert.Empty(t, meetings.meetings, "no meeting row may be written")
}

func TestBookCalendarInsertFails(t *testing.T) {
	cal := &fakeCalendar{insertErr: assert.AnError}
	meetings := newFakeMeetingStore()
	svc := newBookingService(t, cal, meetings)

	_, err := svc.Book(context.Background(), validRequest(t))

	require.ErrorIs(t, err, ErrCalendarUnavailable)
	assert.Empty(t, meetings.meetings, "no meeting row may be written")
}

func TestBookPersistFailureKeepsCalendarEvent(t *testing.T) {
	cal := &fakeCalendar{insertID: "evt-7"}
	meetings := newFakeMeetingStore()
	meetings.createErr = assert.AnError
	svc := newBookingService(t, cal, meetings)

	_, err := svc.Book(context.Background(), validRequest(t))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCalendarUnavailable)
	require.Len(t, cal.inserted, 1, "external event was created")
	assert.Empty(t, cal.deleted, "external event must not be rolled back")
}

func TestBookValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookingRequest)
	}{
		{"missing name", func(r *BookingRequest) { r.GuestName = " " }},
		{"missing title", func(r *BookingRequest) { r.Title = "" }},
		{"bad email", func(r *BookingRequest) { r.GuestEmail = "not-an-email" }},
		{"zero start", func(r *BookingRequest) { r.Start = time.Time{} }},
		{"unaligned start", func(r *BookingRequest) { r.Start = at(t, "2025-03-10 10:10") }},
		{"before hours", func(r *BookingRequest) { r.Start = at(t, "2025-03-10 08:30") }},
		{"after hours", func(r *BookingRequest) { r.Start = at(t, "2025-03-10 17:00") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := &fakeCalendar{}
			meetings := newFakeMeetingStore()
			svc := newBookingService(t, cal, meetings)

			req := validRequest(t)
			tt.mutate(&req)

			_, err := svc.Book(context.Background(), req)
			require.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, cal.inserted)
			assert.Empty(t, meetings.meetings)
		})
	}
}

func TestBookLastSlotOfDay(t *testing.T) {
	cal := &fakeCalendar{}
	meetings := newFakeMeetingStore()
	svc := newBookingService(t, cal, meetings)

	req := validRequest(t)
	req.Start = at(t, "2025-03-10 16:30")

	meeting, err := svc.Book(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, at(t, "2025-03-10 17:00"), meeting.EndTime)
}

func TestCancel(t *testing.T) {
	cal := &fakeCalendar{insertID: "evt-9"}
	meetings := newFakeMeetingStore()
	svc := newBookingService(t, cal, meetings)

	meeting, err := svc.Book(context.Background(), validRequest(t))
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), meeting.ID))

	stored, err := svc.Get(context.Background(), meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MeetingStatusCancelled, stored.Status)
	assert.Equal(t, []string{"evt-9"}, cal.deleted)

	// Cancellation is one-way; a second cancel reports the conflict.
	assert.ErrorIs(t, svc.Cancel(context.Background(), meeting.ID), ErrAlreadyCancelled)
}

func TestCancelUnknownMeeting(t *testing.T) {
	svc := newBookingService(t, &fakeCalendar{}, newFakeMeetingStore())

	err := svc.Cancel(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCancelSurvivesEventDeleteFailure(t *testing.T) {
	cal := &fakeCalendar{insertID: "evt-9"}
	meetings := newFakeMeetingStore()
	svc := newBookingService(t, cal, meetings)

	meeting, err := svc.Book(context.Background(), validRequest(t))
	require.NoError(t, err)

	cal.deleteErr = assert.AnError
	require.NoError(t, svc.Cancel(context.Background(), meeting.ID))

	stored, err := svc.Get(context.Background(), meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MeetingStatusCancelled, stored.Status)
}
