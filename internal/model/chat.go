package model

import (
	"encoding/json"
	"time"
)

// Role represents the role of a chat message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolInvocation records one tool call issued by the assistant during a
// turn, together with its structured result once available.
type ToolInvocation struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// ChatMessage is one turn in a conversation. Assistant turns may carry tool
// invocations alongside (or instead of) text content.
type ChatMessage struct {
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ToolInvocation `json:"tool_calls,omitempty"`
	CreatedAt time.Time        `json:"created_at,omitempty"`
}

// Chat is a persisted conversation owned by a guest. Messages are stored as
// an ordered log and rewritten wholesale after each exchange.
type Chat struct {
	ID        string        `json:"id"`
	GuestID   string        `json:"guest_id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ChatRequest is the request to run one chat exchange. Messages carries the
// full prior sequence ending with the new user message.
type ChatRequest struct {
	ConversationID string        `json:"conversationId"`
	Messages       []ChatMessage `json:"messages"`
}
