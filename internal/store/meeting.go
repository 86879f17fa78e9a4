package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sritampatnaik/sritam-chatbot/internal/model"
)

// CreateMeeting inserts a meeting record.
func (s *Store) CreateMeeting(ctx context.Context, m model.Meeting) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings
		 (id, guest_id, title, start_time, end_time, duration, guest_name, guest_email, status, event_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.GuestID, m.Title,
		formatTime(m.StartTime), formatTime(m.EndTime),
		m.Duration, m.GuestName, m.GuestEmail,
		string(m.Status), m.EventID, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	return nil
}

// GetMeeting retrieves a meeting by id.
func (s *Store) GetMeeting(ctx context.Context, id string) (model.Meeting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, guest_id, title, start_time, end_time, duration, guest_name, guest_email, status, event_id, created_at
		 FROM meetings WHERE id = ?`, id)

	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Meeting{}, ErrNotFound
	}
	if err != nil {
		return model.Meeting{}, fmt.Errorf("failed to get meeting: %w", err)
	}

	return m, nil
}

// ListMeetingsByGuest returns a guest's meetings, newest first.
func (s *Store) ListMeetingsByGuest(ctx context.Context, guestID string) ([]model.Meeting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guest_id, title, start_time, end_time, duration, guest_name, guest_email, status, event_id, created_at
		 FROM meetings WHERE guest_id = ? ORDER BY created_at DESC`, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []model.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}

	return meetings, rows.Err()
}

// UpdateMeetingStatus sets the status of a meeting.
func (s *Store) UpdateMeetingStatus(ctx context.Context, id string, status model.MeetingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE meetings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update meeting status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update meeting status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (model.Meeting, error) {
	var m model.Meeting
	var start, end, created, status string
	err := row.Scan(&m.ID, &m.GuestID, &m.Title, &start, &end,
		&m.Duration, &m.GuestName, &m.GuestEmail, &status, &m.EventID, &created)
	if err != nil {
		return model.Meeting{}, err
	}

	m.StartTime = parseTime(start)
	m.EndTime = parseTime(end)
	m.CreatedAt = parseTime(created)
	m.Status = model.MeetingStatus(status)
	return m, nil
}
