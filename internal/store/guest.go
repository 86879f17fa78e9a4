package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sritampatnaik/sritam-chatbot/internal/model"
)

// GetGuestByEmail retrieves the earliest guest record for an email.
func (s *Store) GetGuestByEmail(ctx context.Context, email string) (model.Guest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM guests WHERE email = ? ORDER BY created_at ASC LIMIT 1`,
		email)

	var g model.Guest
	var created string
	err := row.Scan(&g.ID, &g.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Guest{}, ErrNotFound
	}
	if err != nil {
		return model.Guest{}, fmt.Errorf("failed to get guest: %w", err)
	}

	g.CreatedAt = parseTime(created)
	return g, nil
}

// GetGuest retrieves a guest by id.
func (s *Store) GetGuest(ctx context.Context, id string) (model.Guest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM guests WHERE id = ?`, id)

	var g model.Guest
	var created string
	err := row.Scan(&g.ID, &g.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Guest{}, ErrNotFound
	}
	if err != nil {
		return model.Guest{}, fmt.Errorf("failed to get guest: %w", err)
	}

	g.CreatedAt = parseTime(created)
	return g, nil
}

// CreateGuest inserts a new guest record.
func (s *Store) CreateGuest(ctx context.Context, email string) (model.Guest, error) {
	g := model.Guest{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guests (id, email, created_at) VALUES (?, ?, ?)`,
		g.ID, g.Email, formatTime(g.CreatedAt))
	if err != nil {
		return model.Guest{}, fmt.Errorf("failed to create guest: %w", err)
	}

	return g, nil
}
