package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sritampatnaik/sritam-chatbot/internal/model"
)

// SaveChat inserts a chat or replaces its message log when it already
// exists. The transcript is written as one atomic update.
func (s *Store) SaveChat(ctx context.Context, chat model.Chat) error {
	payload, err := json.Marshal(chat.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode chat messages: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET messages = ?, updated_at = ? WHERE id = ? AND guest_id = ?`,
		string(payload), formatTime(now), chat.ID, chat.GuestID)
	if err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}
	if n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chats (id, guest_id, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		chat.ID, chat.GuestID, string(payload), formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}

	return nil
}

// GetChat retrieves a chat by id.
func (s *Store) GetChat(ctx context.Context, id string) (model.Chat, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, guest_id, messages, created_at, updated_at FROM chats WHERE id = ?`, id)

	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Chat{}, ErrNotFound
	}
	if err != nil {
		return model.Chat{}, fmt.Errorf("failed to get chat: %w", err)
	}

	return chat, nil
}

// ListChatsByGuest returns a guest's chats, newest first.
func (s *Store) ListChatsByGuest(ctx context.Context, guestID string) ([]model.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guest_id, messages, created_at, updated_at
		 FROM chats WHERE guest_id = ? ORDER BY created_at DESC`, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	return chats, rows.Err()
}

// DeleteChat removes a chat by id.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func scanChat(row rowScanner) (model.Chat, error) {
	var chat model.Chat
	var payload, created, updated string
	if err := row.Scan(&chat.ID, &chat.GuestID, &payload, &created, &updated); err != nil {
		return model.Chat{}, err
	}

	if err := json.Unmarshal([]byte(payload), &chat.Messages); err != nil {
		return model.Chat{}, fmt.Errorf("failed to decode chat messages: %w", err)
	}

	chat.CreatedAt = parseTime(created)
	chat.UpdatedAt = parseTime(updated)
	return chat, nil
}
