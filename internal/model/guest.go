package model

import (
	"time"
)

// Guest is a meeting booker. Guests are identified by email only; no
// password is required.
type Guest struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// GuestRequest is the request to create or look up a guest session.
type GuestRequest struct {
	Email string `json:"email"`
}

// GuestResponse is returned for both new and existing guests.
type GuestResponse struct {
	GuestID string `json:"guestId"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}
