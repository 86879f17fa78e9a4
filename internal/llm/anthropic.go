package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-sonnet-20241022"

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client *anthropic.Client
	apiKey string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicClient{
		client: client,
		apiKey: apiKey,
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Models returns available models.
func (c *AnthropicClient) Models() []string {
	return []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-opus-20240229",
	}
}

func (c *AnthropicClient) buildParams(req *CompletionRequest) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(model),
		MaxTokens: anthropic.F(int64(maxTokens)),
		Messages:  anthropic.F(toAnthropicMessages(req.Messages)),
	}

	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(req.System),
			},
		})
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolParam, len(req.Tools))
		for i, tool := range req.Tools {
			tools[i] = anthropic.ToolParam{
				Name:        anthropic.F(tool.Name),
				Description: anthropic.F(tool.Description),
				InputSchema: anthropic.F[interface{}](tool.InputSchema),
			}
		}
		params.Tools = anthropic.F(tools)
	}

	return params
}

// toAnthropicMessages converts neutral messages into Anthropic format. Tool
// results travel as user-role tool_result blocks; assistant tool calls as
// tool_use blocks.
func toAnthropicMessages(messages []ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))

		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.ToolUseBlockParam{
					Type:  anthropic.F(anthropic.ToolUseBlockParamTypeToolUse),
					ID:    anthropic.F(tc.ID),
					Name:  anthropic.F(tc.Name),
					Input: anthropic.F[interface{}](json.RawMessage(tc.Arguments)),
				})
			}
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.F(anthropic.MessageParamRoleAssistant),
				Content: anthropic.F(blocks),
			})

		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return out
}

func fromAnthropicContent(blocks []anthropic.ContentBlock) (string, []ToolCall) {
	var content string
	var calls []ToolCall

	for _, block := range blocks {
		switch block.Type {
		case anthropic.ContentBlockTypeText:
			content += block.Text
		case anthropic.ContentBlockTypeToolUse:
			calls = append(calls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: json.RawMessage(block.Input),
			})
		}
	}

	return content, calls
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	resp, err := c.client.Messages.New(ctx, c.buildParams(req))
	if err != nil {
		return nil, err
	}

	content, calls := fromAnthropicContent(resp.Content)

	return &CompletionResponse{
		Content:    content,
		ToolCalls:  calls,
		Model:      resp.Model,
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// CompleteStream sends a streaming completion request. Text deltas are
// forwarded to the callback as they arrive; tool input JSON is accumulated
// and surfaced on the final response.
func (c *AnthropicClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	stream := c.client.Messages.NewStreaming(ctx, c.buildParams(req))

	message := anthropic.Message{}
	index := 0

	for stream.Next() {
		event := stream.Current()
		message.Accumulate(event)

		if delta, ok := event.Delta.(anthropic.ContentBlockDeltaEventDelta); ok &&
			event.Type == anthropic.MessageStreamEventTypeContentBlockDelta &&
			delta.Type == "text_delta" && delta.Text != "" {
			if err := callback(delta.Text, index); err != nil {
				return nil, err
			}
			index++
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}

	content, calls := fromAnthropicContent(message.Content)

	return &CompletionResponse{
		Content:    content,
		ToolCalls:  calls,
		Model:      model,
		TokensIn:   int(message.Usage.InputTokens),
		TokensOut:  int(message.Usage.OutputTokens),
		StopReason: string(message.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
