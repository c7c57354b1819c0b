// Package tokens counts transcript tokens with tiktoken so long calls can
// be trimmed to the completion model's context window.
package tokens

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"

	"github.com/apexai-labs/onyx/internal/domain"
)

// Per-message overhead for chat models: 3 tokens per message plus 1 for the
// role, with 3 more for assistant priming at the end of the prompt.
const (
	tokensPerTurn = 4
	turnsPriming  = 3
)

// Counter counts tokens for one model's encoding.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter returns a counter for the model, falling back to the o200k
// encoding for unknown model names.
func NewCounter(model string) (*Counter, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(strings.ToLower(model)))
	if err != nil {
		codec, err = tokenizer.Get(tokenizer.O200kBase)
		if err != nil {
			return nil, fmt.Errorf("get tokenizer encoding: %w", err)
		}
	}
	return &Counter{codec: codec}, nil
}

// CountTurn returns the token cost of a single transcript turn.
func (c *Counter) CountTurn(turn domain.Turn) int {
	ids, _, _ := c.codec.Encode(turn.Text)
	return tokensPerTurn + len(ids)
}

// CountTranscript returns the token cost of a full transcript, including
// assistant priming overhead.
func (c *Counter) CountTranscript(transcript []domain.Turn) int {
	total := turnsPriming
	for _, turn := range transcript {
		total += c.CountTurn(turn)
	}
	return total
}

// Trim drops the oldest non-system turns until the transcript fits the
// budget. The leading system turn is always kept. Trim never returns an
// empty transcript: the most recent turn survives even when it alone
// exceeds the budget.
func Trim(counter *Counter, transcript []domain.Turn, budget int) []domain.Turn {
	if counter == nil || budget <= 0 || len(transcript) == 0 {
		return transcript
	}
	if counter.CountTranscript(transcript) <= budget {
		return transcript
	}

	head := 0
	if transcript[0].Role == domain.RoleSystem {
		head = 1
	}

	tail := transcript[head:]
	for len(tail) > 1 {
		trimmed := append(append([]domain.Turn{}, transcript[:head]...), tail[1:]...)
		if counter.CountTranscript(trimmed) <= budget {
			return trimmed
		}
		tail = tail[1:]
	}

	return append(append([]domain.Turn{}, transcript[:head]...), tail...)
}
