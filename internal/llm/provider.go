package llm

import (
	"context"
)

// Generator abstracts a hosted text-generation model (Hugging Face, OpenAI,
// Anthropic, Ollama). Implementations make exactly one upstream call per
// Generate and never retry.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
	Name() string
}

// Params are the generation settings sent with every prompt.
type Params struct {
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
}

// DefaultParams are the settings used for summaries.
var DefaultParams = Params{MaxLength: 300, Temperature: 0.5}
