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

// GetAdminByEmail retrieves the admin record by email.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, access_token, refresh_token, token_expiry, created_at
		 FROM admins WHERE email = ?`, email)

	var a model.Admin
	var expiry, created string
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash,
		&a.Tokens.AccessToken, &a.Tokens.RefreshToken, &expiry, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Admin{}, ErrNotFound
	}
	if err != nil {
		return model.Admin{}, fmt.Errorf("failed to get admin: %w", err)
	}

	a.Tokens.Expiry = parseTime(expiry)
	a.CreatedAt = parseTime(created)
	return a, nil
}

// CreateAdmin inserts a new admin record.
func (s *Store) CreateAdmin(ctx context.Context, email, passwordHash string) (model.Admin, error) {
	a := model.Admin{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Email, a.PasswordHash, formatTime(a.CreatedAt))
	if err != nil {
		return model.Admin{}, fmt.Errorf("failed to create admin: %w", err)
	}

	return a, nil
}

// UpdateAdminTokens persists the credential triple in a single update so
// concurrent readers never observe a half-written credential.
func (s *Store) UpdateAdminTokens(ctx context.Context, email string, cred model.Credential) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admins SET access_token = ?, refresh_token = ?, token_expiry = ? WHERE email = ?`,
		cred.AccessToken, cred.RefreshToken, formatTime(cred.Expiry), email)
	if err != nil {
		return fmt.Errorf("failed to update admin tokens: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update admin tokens: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
