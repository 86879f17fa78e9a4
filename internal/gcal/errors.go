// Package gcal owns the Google Calendar integration: the OAuth credential
// lifecycle and the calendar provider boundary (free/busy, event insert
// and delete).
package gcal

import (
	"errors"
)

var (
	// ErrNoCredential indicates the admin has no usable calendar credential
	// (missing admin record, missing refresh token, or a revoked grant).
	// The integration is disabled until the admin re-authorizes.
	ErrNoCredential = errors.New("gcal: no valid calendar credential")

	// ErrAuthExchange indicates the provider rejected an authorization code
	// during the connect flow.
	ErrAuthExchange = errors.New("gcal: authorization code exchange failed")
)
