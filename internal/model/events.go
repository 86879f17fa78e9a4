package model

import (
	"encoding/json"
)

// TokenEvent is a streamed text delta.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// ToolCallEvent announces a tool invocation requested by the assistant.
type ToolCallEvent struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResultEvent carries the structured result of a tool invocation.
type ToolResultEvent struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Result json.RawMessage `json:"result"`
}

// MessageCompleteEvent closes out an assistant turn.
type MessageCompleteEvent struct {
	Message ChatMessage `json:"message"`
}

// ErrorEvent reports a stream-level failure.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
