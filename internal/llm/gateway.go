package llm

import (
	"fmt"

	"github.com/nikhilbhutani/ytsummary/internal/config"
)

// NewGenerator builds the backend selected by cfg.Provider.
func NewGenerator(cfg config.InferenceConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderHuggingFace:
		return NewHuggingFaceProvider(cfg.URL, cfg.HuggingFaceToken, cfg.Timeout), nil
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model, cfg.Timeout), nil
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.AnthropicKey, cfg.Model, cfg.Timeout), nil
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.OllamaURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("provider %q not supported", cfg.Provider)
	}
}
