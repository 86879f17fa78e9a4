package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return log
}

func postGuest(t *testing.T, h *GuestHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/guest", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestGuestCreateIsIdempotentPerEmail(t *testing.T) {
	st := openTestStore(t)
	h := NewGuestHandler(st, "secret", time.Hour, testLogger(t))

	rec1 := postGuest(t, h, `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, rec1.Code)
	var resp1 model.GuestResponse
	require.NoError(t, json.Unmarshal(rec1.Body.Bytes(), &resp1))
	assert.NotEmpty(t, resp1.GuestID)
	assert.NotEmpty(t, resp1.Token)
	assert.Equal(t, "a@b.com", resp1.Email)

	rec2 := postGuest(t, h, `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, rec2.Code)
	var resp2 model.GuestResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp2))

	assert.Equal(t, resp1.GuestID, resp2.GuestID, "same email must map to the same guest")
}

func TestGuestCreateValidation(t *testing.T) {
	st := openTestStore(t)
	h := NewGuestHandler(st, "secret", time.Hour, testLogger(t))

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{}`},
		{"malformed email", `{"email":"not-an-email"}`},
		{"bad json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postGuest(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
