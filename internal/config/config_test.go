package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "SERVER_HOST", "SERVER_PORT", "LOG_LEVEL", "INFERENCE_PROVIDER",
		"HUGGINGFACE_API_TOKEN", "INFERENCE_URL", "INFERENCE_MODEL", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "ANTHROPIC_API_KEY", "OLLAMA_URL", "TOKENIZER_URL",
		"TOKENIZER_ENCODING", "MAX_PROMPT_TOKENS", "TRANSCRIPT_TIMEOUT", "INFERENCE_TIMEOUT",
		"TOKENIZER_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "AUTH_JWT_SECRET", "CORS_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderHuggingFace, cfg.Inference.Provider)
	assert.Equal(t, DefaultInferenceURL, cfg.Inference.URL)
	assert.Equal(t, 32768, cfg.Tokenizer.MaxTokens)
	assert.Equal(t, 15*time.Second, cfg.Transcript.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("HUGGINGFACE_API_TOKEN", "hf_test")
	t.Setenv("INFERENCE_PROVIDER", "OpenAI")
	t.Setenv("MAX_PROMPT_TOKENS", "1024")
	t.Setenv("INFERENCE_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "hf_test", cfg.Inference.HuggingFaceToken)
	assert.Equal(t, ProviderOpenAI, cfg.Inference.Provider)
	assert.Equal(t, 1024, cfg.Tokenizer.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.Inference.Timeout)
	assert.InDelta(t, 2.5, cfg.RateLimit.RPS, 0.0001)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "SERVER_PORT", "eighty"},
		{"bad token limit", "MAX_PROMPT_TOKENS", "lots"},
		{"bad duration", "TRANSCRIPT_TIMEOUT", "15"},
		{"bad rps", "RATE_LIMIT_RPS", "fast"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
server:
  port: 7000
inference:
  provider: ollama
  model: mistral
  timeout: 30s
tokenizer:
  max_tokens: 4096
`), 0o600)
	require.NoError(t, err)

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port, "env wins over file")
	assert.Equal(t, ProviderOllama, cfg.Inference.Provider)
	assert.Equal(t, "mistral", cfg.Inference.Model)
	assert.Equal(t, 30*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, 4096, cfg.Tokenizer.MaxTokens)
	assert.Equal(t, "http://localhost:11434", cfg.Inference.OllamaURL, "defaults survive the overlay")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "huggingface with token",
			mutate: func(c *Config) { c.Inference.HuggingFaceToken = "hf_x" },
		},
		{
			name:    "huggingface without token",
			mutate:  func(c *Config) {},
			wantErr: "HUGGINGFACE_API_TOKEN",
		},
		{
			name: "openai without key",
			mutate: func(c *Config) {
				c.Inference.Provider = ProviderOpenAI
			},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name: "anthropic with key",
			mutate: func(c *Config) {
				c.Inference.Provider = ProviderAnthropic
				c.Inference.AnthropicKey = "sk-ant"
			},
		},
		{
			name: "ollama needs no secret",
			mutate: func(c *Config) {
				c.Inference.Provider = ProviderOllama
			},
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.Inference.Provider = "bard"
			},
			wantErr: "unknown INFERENCE_PROVIDER",
		},
		{
			name: "non-positive token ceiling",
			mutate: func(c *Config) {
				c.Inference.HuggingFaceToken = "hf_x"
				c.Tokenizer.MaxTokens = 0
			},
			wantErr: "MAX_PROMPT_TOKENS",
		},
		{
			name: "zero timeout",
			mutate: func(c *Config) {
				c.Inference.HuggingFaceToken = "hf_x"
				c.Inference.Timeout = 0
			},
			wantErr: "timeouts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{Log: LogConfig{Level: tt.level}}
		assert.Equal(t, tt.want, cfg.SlogLevel(), tt.level)
	}
}
