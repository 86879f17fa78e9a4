package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sritampatnaik/sritam-chatbot/internal/llm"
	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
	"github.com/sritampatnaik/sritam-chatbot/pkg/metrics"
)

// maxToolRounds bounds the tool loop so a misbehaving model cannot spin
// the orchestrator indefinitely.
const maxToolRounds = 8

// ChatStore persists finished exchanges.
type ChatStore interface {
	SaveChat(ctx context.Context, chat model.Chat) error
}

// Sink receives the incrementally produced response.
type Sink interface {
	Token(token string, index int) error
	ToolCall(ev model.ToolCallEvent) error
	ToolResult(ev model.ToolResultEvent) error
	Complete(msg model.ChatMessage) error
}

// Orchestrator runs one chat turn: it hands the conversation to the model
// together with the callable actions, executes each requested action
// synchronously, feeds results back, and streams the reply.
type Orchestrator struct {
	llm      llm.Client
	tools    *Toolset
	chats    ChatStore
	modelID  string
	timezone string
	location *time.Location
	hours    promptHours
	logger   *logger.Logger

	now func() time.Time
}

type promptHours struct {
	startHour   int
	endHour     int
	slotMinutes int
}

// NewOrchestrator creates a conversation orchestrator.
func NewOrchestrator(
	client llm.Client,
	tools *Toolset,
	chats ChatStore,
	modelID, timezone string,
	location *time.Location,
	startHour, endHour, slotMinutes int,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		llm:      client,
		tools:    tools,
		chats:    chats,
		modelID:  modelID,
		timezone: timezone,
		location: location,
		hours:    promptHours{startHour: startHour, endHour: endHour, slotMinutes: slotMinutes},
		logger:   log,
		now:      time.Now,
	}
}

// Respond drives one exchange. history must end with the new user message.
// The full exchange, including tool invocations and their results, is
// appended to the chat record as one atomic save after the stream ends.
func (o *Orchestrator) Respond(ctx context.Context, chatID, guestID string, history []model.ChatMessage, sink Sink) error {
	if len(history) == 0 || history[len(history)-1].Role != model.RoleUser {
		return fmt.Errorf("conversation must end with a user message")
	}

	messages := toLLMMessages(history)
	system := systemPrompt(o.now().In(o.location), o.timezone,
		o.hours.startHour, o.hours.endHour, o.hours.slotMinutes)

	turn := model.ChatMessage{Role: model.RoleAssistant}
	tokenIndex := 0
	streamStart := o.now()

	for round := 0; ; round++ {
		resp, err := o.llm.CompleteStream(ctx, &llm.CompletionRequest{
			Model:    o.modelID,
			System:   system,
			Messages: messages,
			Tools:    o.tools.Definitions(),
		}, func(token string, _ int) error {
			err := sink.Token(token, tokenIndex)
			tokenIndex++
			return err
		})
		if err != nil {
			metrics.RecordLLMStream(o.modelID, "error", o.now().Sub(streamStart).Seconds(), 0, 0)
			return fmt.Errorf("LLM stream failed: %w", err)
		}

		metrics.RecordLLMStream(resp.Model, "success",
			o.now().Sub(streamStart).Seconds(), resp.TokensIn, resp.TokensOut)

		if resp.Content != "" {
			if turn.Content != "" {
				turn.Content += "\n"
			}
			turn.Content += resp.Content
		}

		if !resp.StoppedForTools() {
			break
		}

		if round >= maxToolRounds {
			o.logger.Warn("tool round limit reached",
				zap.String("conversation_id", chatID),
				zap.Int("rounds", round),
			)
			break
		}

		messages = append(messages, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			if err := sink.ToolCall(model.ToolCallEvent{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: call.Arguments,
			}); err != nil {
				return err
			}

			result := o.tools.Execute(ctx, guestID, call)

			if err := sink.ToolResult(model.ToolResultEvent{
				ID:     call.ID,
				Name:   call.Name,
				Result: result,
			}); err != nil {
				return err
			}

			turn.ToolCalls = append(turn.ToolCalls, model.ToolInvocation{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: call.Arguments,
				Result:    result,
			})
			messages = append(messages, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    string(result),
				ToolCallID: call.ID,
			})
		}
	}

	turn.CreatedAt = o.now().UTC()
	if err := sink.Complete(turn); err != nil {
		return err
	}

	transcript := append(append([]model.ChatMessage{}, history...), turn)
	if err := o.chats.SaveChat(ctx, model.Chat{
		ID:       chatID,
		GuestID:  guestID,
		Messages: transcript,
	}); err != nil {
		// The reply already reached the guest; losing the transcript is
		// logged rather than surfaced as a stream failure.
		o.logger.Error("failed to save chat transcript",
			zap.String("conversation_id", chatID),
			zap.Error(err),
		)
	}

	return nil
}

// toLLMMessages flattens the persisted transcript into provider-neutral
// messages, expanding stored tool invocations back into call/result pairs.
func toLLMMessages(history []model.ChatMessage) []llm.ChatMessage {
	var out []llm.ChatMessage
	for _, msg := range history {
		if msg.Role != model.RoleAssistant {
			if msg.Content != "" {
				out = append(out, llm.ChatMessage{Role: llm.RoleUser, Content: msg.Content})
			}
			continue
		}

		assistant := llm.ChatMessage{Role: llm.RoleAssistant, Content: msg.Content}
		for _, inv := range msg.ToolCalls {
			assistant.ToolCalls = append(assistant.ToolCalls, llm.ToolCall{
				ID:        inv.ID,
				Name:      inv.Name,
				Arguments: inv.Arguments,
			})
		}
		out = append(out, assistant)

		for _, inv := range msg.ToolCalls {
			out = append(out, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    string(inv.Result),
				ToolCallID: inv.ID,
			})
		}
	}

	return out
}
