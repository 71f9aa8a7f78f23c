package tokenizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter returns the number of model tokens in text.
type Counter interface {
	Count(ctx context.Context, text string) (int, error)
}

// CountTokens provides a rough token count estimate.
func CountTokens(text string) int {
	// Rough estimate: ~4 chars per token for English
	words := strings.Fields(text)
	return max(len(words)*4/3, 1)
}

// Estimate is a Counter backed by CountTokens.
type Estimate struct{}

func (Estimate) Count(_ context.Context, text string) (int, error) {
	return CountTokens(text), nil
}

// Tiktoken counts tokens with a local BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding, e.g. "cl100k_base".
func NewTiktoken(encoding string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(_ context.Context, text string) (int, error) {
	return len(t.enc.Encode(text, nil, nil)), nil
}

// NewLocal returns a Tiktoken counter, or Estimate when the encoding cannot be
// loaded (its BPE ranks are downloaded on first use).
func NewLocal(encoding string) Counter {
	tk, err := NewTiktoken(encoding)
	if err != nil {
		slog.Warn("tiktoken unavailable, falling back to word estimate", "encoding", encoding, "error", err)
		return Estimate{}
	}
	slog.Info("counting prompt tokens locally; counts approximate the serving model's vocabulary, set TOKENIZER_URL for exact counts",
		"encoding", encoding)
	return tk
}
