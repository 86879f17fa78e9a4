package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sritampatnaik/sritam-chatbot/internal/middleware"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
)

func seedChat(t *testing.T, st *store.Store, guestID string) string {
	t.Helper()
	chatID := uuid.New().String()
	require.NoError(t, st.SaveChat(context.Background(), model.Chat{
		ID:       chatID,
		GuestID:  guestID,
		Messages: []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}},
	}))
	return chatID
}

func deleteChat(t *testing.T, h *ChatHandler, chatID, guestID string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Delete("/api/v1/chat/{id}", h.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/"+chatID, nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.GuestIDKey, guestID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatDeleteByOwner(t *testing.T) {
	st := openTestStore(t)
	guest, err := st.CreateGuest(context.Background(), "a@b.com")
	require.NoError(t, err)
	chatID := seedChat(t, st, guest.ID)

	h := NewChatHandler(nil, st, testLogger(t))
	rec := deleteChat(t, h, chatID, guest.ID)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = st.GetChat(context.Background(), chatID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestChatDeleteByNonOwnerIsUnauthorized(t *testing.T) {
	st := openTestStore(t)
	owner, err := st.CreateGuest(context.Background(), "a@b.com")
	require.NoError(t, err)
	other, err := st.CreateGuest(context.Background(), "x@y.com")
	require.NoError(t, err)
	chatID := seedChat(t, st, owner.ID)

	h := NewChatHandler(nil, st, testLogger(t))
	rec := deleteChat(t, h, chatID, other.ID)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err = st.GetChat(context.Background(), chatID)
	assert.NoError(t, err, "the chat must survive an unauthorized delete")
}

func TestChatDeleteMissingChat(t *testing.T) {
	st := openTestStore(t)
	guest, err := st.CreateGuest(context.Background(), "a@b.com")
	require.NoError(t, err)

	h := NewChatHandler(nil, st, testLogger(t))
	rec := deleteChat(t, h, uuid.New().String(), guest.ID)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatRejectsMalformedRequests(t *testing.T) {
	st := openTestStore(t)
	h := NewChatHandler(nil, st, testLogger(t))

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"bad conversation id", `{"conversationId":"nope","messages":[{"role":"user","content":"hi"}]}`},
		{"no messages", `{"conversationId":"` + uuid.New().String() + `","messages":[]}`},
		{"assistant tail", `{"conversationId":"` + uuid.New().String() + `","messages":[{"role":"assistant","content":"hi"}]}`},
		{"empty content", `{"conversationId":"` + uuid.New().String() + `","messages":[{"role":"user","content":""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.GuestIDKey, "guest-1"))
			rec := httptest.NewRecorder()
			h.Chat(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
