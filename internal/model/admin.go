package model

import (
	"time"
)

// Credential is the OAuth token pair authorizing calendar access on behalf
// of the admin. The refresh token survives refresh cycles.
type Credential struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	Expiry       time.Time `json:"-"`
}

// Valid reports whether the access token is present and good for at least
// the given margin.
func (c Credential) Valid(now time.Time, margin time.Duration) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.Expiry.After(now.Add(margin))
}

// Admin is the calendar owner. A single admin owns the calendar all
// meetings are booked on.
type Admin struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Tokens       Credential `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}
