// Package llm wraps the OpenAI chat completions API behind a small
// Completer interface so the engine can be tested with fakes.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Request is one chat completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int64
	Temperature float64
}

// Completer produces a completion for a system+user prompt pair.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client calls the OpenAI chat completions API.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates a chat completions client. Extra options are passed
// through to the underlying SDK client.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Complete sends the request and returns the trimmed completion text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
