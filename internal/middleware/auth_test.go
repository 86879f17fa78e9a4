package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return GuestAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetGuestID(r.Context()) + ":" + GetGuestEmail(r.Context())))
	}))
}

func TestGuestAuthRoundTrip(t *testing.T) {
	token, err := MintGuestToken(testSecret, "guest-1", "a@b.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedEcho(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "guest-1:a@b.com", rec.Body.String())
}

func TestGuestAuthRejections(t *testing.T) {
	expired, err := MintGuestToken(testSecret, "guest-1", "a@b.com", -time.Minute)
	require.NoError(t, err)
	wrongKey, err := MintGuestToken("other-secret", "guest-1", "a@b.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + wrongKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protectedEcho(t).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
