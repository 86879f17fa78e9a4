package middleware

import (
	"errors"
	"net/mail"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}

// ValidateMeetingID validates a meeting ID.
func ValidateMeetingID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid meeting ID format")
	}
	return nil
}

// ValidateEmail validates a guest email address.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > 64 {
		return errors.New("email exceeds maximum length")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email address")
	}
	return nil
}
