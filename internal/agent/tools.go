// Package agent drives the tool-calling conversation loop between the
// language model and the booking backend.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sritampatnaik/sritam-chatbot/internal/llm"
	"github.com/sritampatnaik/sritam-chatbot/internal/scheduling"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
	"github.com/sritampatnaik/sritam-chatbot/pkg/metrics"
)

// Tool names exposed to the model.
const (
	ToolCheckAvailability = "checkAvailability"
	ToolCreateMeeting     = "createMeeting"
	ToolGetMeetingDetails = "getMeetingDetails"
)

// maxSlotsReturned caps how many options the model is shown per day.
const maxSlotsReturned = 5

// Toolset executes the callable actions on behalf of the model. Failures
// are always returned as structured {error: message} payloads, never as
// Go errors, so the conversation can recover instead of terminating.
type Toolset struct {
	engine  *scheduling.Engine
	booking *scheduling.Service
	logger  *logger.Logger
}

// NewToolset creates the toolset over the scheduling components.
func NewToolset(engine *scheduling.Engine, booking *scheduling.Service, log *logger.Logger) *Toolset {
	return &Toolset{
		engine:  engine,
		booking: booking,
		logger:  log,
	}
}

// Definitions returns the tool declarations sent to the model.
func (t *Toolset) Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Name:        ToolCheckAvailability,
			Description: "Check available meeting slots for a specific date",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "Date to check availability (YYYY-MM-DD format)",
					},
				},
				"required": []string{"date"},
			},
		},
		{
			Name:        ToolCreateMeeting,
			Description: "Create a meeting booking after confirming all details with the user",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"guestName": map[string]interface{}{
						"type":        "string",
						"description": "Full name of the guest",
					},
					"guestEmail": map[string]interface{}{
						"type":        "string",
						"description": "Email address of the guest",
					},
					"startTime": map[string]interface{}{
						"type":        "string",
						"description": "Meeting start time (ISO 8601 format)",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Meeting title/subject",
					},
				},
				"required": []string{"guestName", "guestEmail", "startTime", "title"},
			},
		},
		{
			Name:        ToolGetMeetingDetails,
			Description: "Get details of a booked meeting",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"meetingId": map[string]interface{}{
						"type":        "string",
						"description": "Unique identifier for the meeting",
					},
				},
				"required": []string{"meetingId"},
			},
		},
	}
}

// Execute dispatches one tool call and returns its JSON result.
func (t *Toolset) Execute(ctx context.Context, guestID string, call llm.ToolCall) json.RawMessage {
	var result interface{}

	switch call.Name {
	case ToolCheckAvailability:
		result = t.checkAvailability(ctx, call.Arguments)
	case ToolCreateMeeting:
		result = t.createMeeting(ctx, guestID, call.Arguments)
	case ToolGetMeetingDetails:
		result = t.getMeetingDetails(ctx, call.Arguments)
	default:
		result = errorPayload{Error: fmt.Sprintf("unknown tool: %s", call.Name)}
	}

	outcome := "success"
	if _, failed := result.(errorPayload); failed {
		outcome = "error"
	}
	metrics.RecordToolCall(call.Name, outcome)

	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"error":"internal error"}`)
	}
	return payload
}

type errorPayload struct {
	Error string `json:"error"`
}

type slotPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type availabilityPayload struct {
	Date           string        `json:"date"`
	AvailableSlots []slotPayload `json:"availableSlots"`
	TotalAvailable int           `json:"totalAvailable"`
}

func (t *Toolset) checkAvailability(ctx context.Context, args json.RawMessage) interface{} {
	var input struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(args, &input); err != nil || input.Date == "" {
		return errorPayload{Error: "date is required (YYYY-MM-DD)"}
	}

	day, err := time.ParseInLocation("2006-01-02", input.Date, t.engine.Hours().Location)
	if err != nil {
		return errorPayload{Error: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", input.Date)}
	}

	slots, err := t.engine.DayAvailability(ctx, day)
	if err != nil {
		t.logger.Warn("availability check failed", zap.String("date", input.Date), zap.Error(err))
		return errorPayload{Error: "Unable to check availability at this time. Please try again."}
	}

	shown := make([]slotPayload, 0, maxSlotsReturned)
	for i, slot := range slots {
		if i == maxSlotsReturned {
			break
		}
		shown = append(shown, slotPayload{
			Start: slot.Start.Format(time.RFC3339),
			End:   slot.End.Format(time.RFC3339),
		})
	}

	return availabilityPayload{
		Date:           input.Date,
		AvailableSlots: shown,
		TotalAvailable: len(slots),
	}
}

type meetingCreatedPayload struct {
	Success   bool   `json:"success"`
	MeetingID string `json:"meetingId"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	GuestName string `json:"guestName"`
	Duration  string `json:"duration"`
}

func (t *Toolset) createMeeting(ctx context.Context, guestID string, args json.RawMessage) interface{} {
	var input struct {
		GuestName  string `json:"guestName"`
		GuestEmail string `json:"guestEmail"`
		StartTime  string `json:"startTime"`
		Title      string `json:"title"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return errorPayload{Error: "invalid arguments"}
	}

	start, err := time.Parse(time.RFC3339, input.StartTime)
	if err != nil {
		return errorPayload{Error: fmt.Sprintf("invalid startTime %q, expected ISO 8601", input.StartTime)}
	}

	meeting, err := t.booking.Book(ctx, scheduling.BookingRequest{
		GuestID:    guestID,
		GuestName:  input.GuestName,
		GuestEmail: input.GuestEmail,
		Start:      start,
		Title:      input.Title,
	})
	if err != nil {
		t.logger.Warn("booking failed", zap.String("guest_id", guestID), zap.Error(err))
		switch {
		case errors.Is(err, scheduling.ErrValidation):
			return errorPayload{Error: err.Error()}
		case errors.Is(err, scheduling.ErrSlotTaken):
			return errorPayload{Error: "That time is no longer available. Please check availability and pick another slot."}
		default:
			return errorPayload{Error: "Unable to create meeting. Please try again."}
		}
	}

	return meetingCreatedPayload{
		Success:   true,
		MeetingID: meeting.ID,
		Title:     meeting.Title,
		StartTime: meeting.StartTime.Format(time.RFC3339),
		EndTime:   meeting.EndTime.Format(time.RFC3339),
		GuestName: meeting.GuestName,
		Duration:  meeting.Duration,
	}
}

type meetingDetailsPayload struct {
	MeetingID string `json:"meetingId"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	GuestName string `json:"guestName"`
	Status    string `json:"status"`
	Duration  string `json:"duration"`
}

func (t *Toolset) getMeetingDetails(ctx context.Context, args json.RawMessage) interface{} {
	var input struct {
		MeetingID string `json:"meetingId"`
	}
	if err := json.Unmarshal(args, &input); err != nil || input.MeetingID == "" {
		return errorPayload{Error: "meetingId is required"}
	}

	meeting, err := t.booking.Get(ctx, input.MeetingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorPayload{Error: "Meeting not found"}
		}
		t.logger.Warn("meeting lookup failed", zap.String("meeting_id", input.MeetingID), zap.Error(err))
		return errorPayload{Error: "Unable to retrieve meeting details."}
	}

	return meetingDetailsPayload{
		MeetingID: meeting.ID,
		Title:     meeting.Title,
		StartTime: meeting.StartTime.Format(time.RFC3339),
		EndTime:   meeting.EndTime.Format(time.RFC3339),
		GuestName: meeting.GuestName,
		Status:    string(meeting.Status),
		Duration:  meeting.Duration,
	}
}
