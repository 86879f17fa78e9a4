package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sritampatnaik/sritam-chatbot/internal/gcal"
	"github.com/sritampatnaik/sritam-chatbot/internal/llm"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/internal/scheduling"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
)

// fakeCalendar implements gcal.API for tests.
type fakeCalendar struct {
	busy      []model.BusyInterval
	busyErr   error
	insertErr error
	inserted  int
}

func (f *fakeCalendar) FreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]model.BusyInterval, error) {
	if f.busyErr != nil {
		return nil, f.busyErr
	}
	return f.busy, nil
}

func (f *fakeCalendar) InsertEvent(ctx context.Context, ev gcal.EventInput) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted++
	return "evt-1", nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	return nil
}

// fakeMeetingStore implements scheduling.MeetingStore in memory.
type fakeMeetingStore struct {
	meetings map[string]model.Meeting
}

func newFakeMeetingStore() *fakeMeetingStore {
	return &fakeMeetingStore{meetings: map[string]model.Meeting{}}
}

func (f *fakeMeetingStore) CreateMeeting(ctx context.Context, m model.Meeting) error {
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
	return nil, nil
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

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return log
}

func newTestToolset(t *testing.T, cal *fakeCalendar, meetings *fakeMeetingStore) *Toolset {
	t.Helper()
	hours := scheduling.Hours{StartHour: 9, EndHour: 17, SlotMinutes: 30, Location: time.UTC}
	engine := scheduling.NewEngine(cal, hours, testLogger(t))
	booking := scheduling.NewService(engine, cal, meetings, testLogger(t))
	return NewToolset(engine, booking, testLogger(t))
}

func execute(t *testing.T, ts *Toolset, name, args string) map[string]interface{} {
	t.Helper()
	raw := ts.Execute(context.Background(), "guest-1", llm.ToolCall{
		ID:        "call-1",
		Name:      name,
		Arguments: json.RawMessage(args),
	})

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestDefinitionsExposeThreeTools(t *testing.T) {
	ts := newTestToolset(t, &fakeCalendar{}, newFakeMeetingStore())

	defs := ts.Definitions()

	require.Len(t, defs, 3)
	names := []string{defs[0].Name, defs[1].Name, defs[2].Name}
	assert.Contains(t, names, ToolCheckAvailability)
	assert.Contains(t, names, ToolCreateMeeting)
	assert.Contains(t, names, ToolGetMeetingDetails)
	for _, def := range defs {
		assert.NotEmpty(t, def.Description)
		assert.NotEmpty(t, def.InputSchema)
	}
}

func TestCheckAvailabilityTool(t *testing.T) {
	cal := &fakeCalendar{busy: []model.BusyInterval{{
		Start: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
	}}}
	ts := newTestToolset(t, cal, newFakeMeetingStore())

	out := execute(t, ts, ToolCheckAvailability, `{"date":"2025-03-10"}`)

	assert.Equal(t, "2025-03-10", out["date"])
	assert.Equal(t, float64(15), out["totalAvailable"])
	slots := out["availableSlots"].([]interface{})
	assert.Len(t, slots, 5, "at most five options are shown")
}

func TestCheckAvailabilityToolBadDate(t *testing.T) {
	ts := newTestToolset(t, &fakeCalendar{}, newFakeMeetingStore())

	out := execute(t, ts, ToolCheckAvailability, `{"date":"tomorrow"}`)
	assert.Contains(t, out["error"], "invalid date")

	out = execute(t, ts, ToolCheckAvailability, `{}`)
	assert.Contains(t, out["error"], "date is required")
}

func TestCheckAvailabilityToolCalendarDown(t *testing.T) {
	ts := newTestToolset(t, &fakeCalendar{busyErr: assert.AnError}, newFakeMeetingStore())

	out := execute(t, ts, ToolCheckAvailability, `{"date":"2025-03-10"}`)

	assert.Equal(t, "Unable to check availability at this time. Please try again.", out["error"])
}

func TestCreateMeetingTool(t *testing.T) {
	meetings := newFakeMeetingStore()
	ts := newTestToolset(t, &fakeCalendar{}, meetings)

	out := execute(t, ts, ToolCreateMeeting,
		`{"guestName":"Ada Lovelace","guestEmail":"a@b.com","startTime":"2025-03-10T10:00:00Z","title":"Sync"}`)

	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Sync", out["title"])
	assert.Equal(t, "2025-03-10T10:00:00Z", out["startTime"])
	assert.Equal(t, "2025-03-10T10:30:00Z", out["endTime"])
	assert.Equal(t, "30 minutes", out["duration"])

	meetingID := out["meetingId"].(string)
	stored, err := meetings.GetMeeting(context.Background(), meetingID)
	require.NoError(t, err)
	assert.Equal(t, "guest-1", stored.GuestID)
	assert.Equal(t, model.MeetingStatusConfirmed, stored.Status)
}

func TestCreateMeetingToolSlotTaken(t *testing.T) {
	cal := &fakeCalendar{busy: []model.BusyInterval{{
		Start: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
	}}}
	meetings := newFakeMeetingStore()
	ts := newTestToolset(t, cal, meetings)

	out := execute(t, ts, ToolCreateMeeting,
		`{"guestName":"Ada","guestEmail":"a@b.com","startTime":"2025-03-10T10:00:00Z","title":"Sync"}`)

	assert.Contains(t, out["error"], "no longer available")
	assert.Empty(t, meetings.meetings)
	assert.Zero(t, cal.inserted)
}

func TestCreateMeetingToolCalendarDown(t *testing.T) {
	ts := newTestToolset(t, &fakeCalendar{insertErr: assert.AnError}, newFakeMeetingStore())

	out := execute(t, ts, ToolCreateMeeting,
		`{"guestName":"Ada","guestEmail":"a@b.com","startTime":"2025-03-10T10:00:00Z","title":"Sync"}`)

	assert.Equal(t, "Unable to create meeting. Please try again.", out["error"])
}

func TestCreateMeetingToolBadStartTime(t *testing.T) {
	ts := newTestToolset(t, &fakeCalendar{}, newFakeMeetingStore())

	out := execute(t, ts, ToolCreateMeeting,
		`{"guestName":"Ada","guestEmail":"a@b.com","startTime":"next tuesday","title":"Sync"}`)

	assert.Contains(t, out["error"], "invalid startTime")
}

func TestGetMeetingDetailsTool(t *testing.T) {
	meetings := newFakeMeetingStore()
	ts := newTestToolset(t, &fakeCalendar{}, meetings)

	created := execute(t, ts, ToolCreateMeeting,
		`{"guestName":"Ada","guestEmail":"a@b.com","startTime":"2025-03-10T10:00:00Z","title":"Sync"}`)
	meetingID := created["meetingId"].(string)

	out := execute(t, ts, ToolGetMeetingDetails, `{"meetingId":"`+meetingID+`"}`)

	assert.Equal(t, meetingID, out["meetingId"])
	assert.Equal(t, "Sync", out["title"])
	assert.Equal(t, "confirmed", out["status"])
}

func TestGetMeetingDetailsToolNotFound(t *testing.T) {
	ts := newTestToolset(t, &fakeCalendar{}, newFakeMeetingStore())

	out := execute(t, ts, ToolGetMeetingDetails, `{"meetingId":"missing"}`)

	assert.Equal(t, "Meeting not found", out["error"])
}

func TestUnknownTool(t *testing.T) {
	ts := newTestToolset(t, &fakeCalendar{}, newFakeMeetingStore())

	out := execute(t, ts, "sendEmail", `{}`)

	assert.Contains(t, out["error"], "unknown tool")
}
