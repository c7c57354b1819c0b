// Package openai implements the completion adapter over the official
// OpenAI Go SDK.
package openai

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/apexai-labs/onyx/internal/domain"
	"github.com/apexai-labs/onyx/internal/tokens"
)

const defaultModel = "gpt-4o"

// CompleterOption configures the completer.
type CompleterOption func(*Completer)

// WithModel overrides the completion model.
func WithModel(model string) CompleterOption {
	return func(c *Completer) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTokenBudget bounds the prompt size. Transcripts are trimmed
// oldest-first (the system turn always survives) before each call.
func WithTokenBudget(budget int) CompleterOption {
	return func(c *Completer) {
		c.budget = budget
	}
}

// WithRequestOptions appends extra SDK request options, e.g. a custom base
// URL or HTTP client for tests.
func WithRequestOptions(opts ...option.RequestOption) CompleterOption {
	return func(c *Completer) {
		c.requestOpts = append(c.requestOpts, opts...)
	}
}

// Completer produces the next assistant utterance from a call transcript.
type Completer struct {
	client      openai.Client
	model       string
	budget      int
	counter     *tokens.Counter
	requestOpts []option.RequestOption
}

var _ domain.Completer = (*Completer)(nil)

// NewCompleter creates a completion adapter.
func NewCompleter(apiKey string, opts ...CompleterOption) (*Completer, error) {
	c := &Completer{model: defaultModel}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, c.requestOpts...)
	c.client = openai.NewClient(clientOpts...)

	if c.budget > 0 {
		counter, err := tokens.NewCounter(c.model)
		if err != nil {
			return nil, fmt.Errorf("token counter for %s: %w", c.model, err)
		}
		c.counter = counter
	}
	return c, nil
}

// Complete sends the ordered transcript and returns the assistant reply.
func (c *Completer) Complete(ctx context.Context, transcript []domain.Turn) (string, error) {
	transcript = tokens.Trim(c.counter, transcript, c.budget)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript))
	for _, turn := range transcript {
		switch turn.Role {
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Text))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}
	return content, nil
}
