package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
)

// EventInput describes a calendar event to insert.
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	GuestName   string
	GuestEmail  string
}

// API is the calendar provider surface consumed by the scheduling layer.
type API interface {
	FreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]model.BusyInterval, error)
	InsertEvent(ctx context.Context, ev EventInput) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Client implements API against the Google Calendar v3 API, authorizing
// each call with a fresh access token from the token manager.
type Client struct {
	tokens     *TokenManager
	adminEmail string
	calendarID string
	timezone   string
	logger     *logger.Logger
}

// NewClient creates a calendar client for the configured admin calendar.
func NewClient(tokens *TokenManager, adminEmail, calendarID, timezone string, log *logger.Logger) *Client {
	return &Client{
		tokens:     tokens,
		adminEmail: adminEmail,
		calendarID: calendarID,
		timezone:   timezone,
		logger:     log,
	}
}

func (c *Client) service(ctx context.Context) (*calendar.Service, error) {
	accessToken, err := c.tokens.ValidAccessToken(ctx, c.adminEmail)
	if err != nil {
		return nil, err
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return svc, nil
}

// FreeBusy queries busy intervals on the admin calendar for a time range.
func (c *Client) FreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]model.BusyInterval, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("free/busy query failed: %w", err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, nil
	}

	var busy []model.BusyInterval
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("malformed busy interval start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("malformed busy interval end %q: %w", period.End, err)
		}
		busy = append(busy, model.BusyInterval{Start: start, End: end})
	}

	return busy, nil
}

// InsertEvent creates an event on the admin calendar and returns its id.
// Invites are not emailed automatically; reminders mirror the admin's
// preferred defaults.
func (c *Client) InsertEvent(ctx context.Context, ev EventInput) (string, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return "", err
	}

	description := ev.Description
	if description == "" {
		description = fmt.Sprintf("Meeting with %s", ev.GuestName)
	}

	event := &calendar.Event{
		Summary:     ev.Title,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		Attendees: []*calendar.EventAttendee{
			{Email: ev.GuestEmail, DisplayName: ev.GuestName},
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := svc.Events.Insert(c.calendarID, event).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("event insert failed: %w", err)
	}
	if created.Id == "" {
		return "", fmt.Errorf("event insert returned no id")
	}

	return created.Id, nil
}

// DeleteEvent removes an event from the admin calendar.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}

	if err := svc.Events.Delete(c.calendarID, eventID).
		SendUpdates("none").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("event delete failed: %w", err)
	}

	return nil
}
