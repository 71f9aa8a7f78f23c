package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Inference backends accepted by INFERENCE_PROVIDER.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
	ProviderOllama      = "ollama"
)

const DefaultInferenceURL = "https://api-inference.huggingface.co/models/mistralai/Mixtral-8x7B-Instruct-v0.1"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Inference  InferenceConfig  `yaml:"inference"`
	Tokenizer  TokenizerConfig  `yaml:"tokenizer"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Auth       AuthConfig       `yaml:"auth"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TranscriptConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type InferenceConfig struct {
	Provider         string        `yaml:"provider"` // huggingface, openai, anthropic, ollama
	HuggingFaceToken string        `yaml:"huggingface_token"`
	URL              string        `yaml:"url"`
	Model            string        `yaml:"model"`
	OpenAIKey        string        `yaml:"openai_key"`
	OpenAIBaseURL    string        `yaml:"openai_base_url"`
	AnthropicKey     string        `yaml:"anthropic_key"`
	OllamaURL        string        `yaml:"ollama_url"`
	Timeout          time.Duration `yaml:"timeout"`
}

type TokenizerConfig struct {
	URL       string        `yaml:"url"`      // remote /tokenize endpoint; empty means local tiktoken
	Encoding  string        `yaml:"encoding"` // tiktoken encoding name
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` // empty disables auth on /summary
}

// Default returns the configuration used when neither a config file nor
// environment variables override a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"*"},
		},
		Log: LogConfig{Level: "info"},
		Transcript: TranscriptConfig{
			Timeout: 15 * time.Second,
		},
		Inference: InferenceConfig{
			Provider:  ProviderHuggingFace,
			URL:       DefaultInferenceURL,
			OllamaURL: "http://localhost:11434",
			Timeout:   60 * time.Second,
		},
		Tokenizer: TokenizerConfig{
			Encoding:  "cl100k_base",
			MaxTokens: 32768,
			Timeout:   10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and the process environment, in increasing precedence. A .env
// file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	c.Inference.Provider = strings.ToLower(getEnv("INFERENCE_PROVIDER", c.Inference.Provider))
	c.Inference.HuggingFaceToken = getEnv("HUGGINGFACE_API_TOKEN", c.Inference.HuggingFaceToken)
	c.Inference.URL = getEnv("INFERENCE_URL", c.Inference.URL)
	c.Inference.Model = getEnv("INFERENCE_MODEL", c.Inference.Model)
	c.Inference.OpenAIKey = getEnv("OPENAI_API_KEY", c.Inference.OpenAIKey)
	c.Inference.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.Inference.OpenAIBaseURL)
	c.Inference.AnthropicKey = getEnv("ANTHROPIC_API_KEY", c.Inference.AnthropicKey)
	c.Inference.OllamaURL = getEnv("OLLAMA_URL", c.Inference.OllamaURL)

	c.Tokenizer.URL = getEnv("TOKENIZER_URL", c.Tokenizer.URL)
	c.Tokenizer.Encoding = getEnv("TOKENIZER_ENCODING", c.Tokenizer.Encoding)

	c.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", c.Auth.JWTSecret)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	var err error
	if c.Server.Port, err = getEnvInt("SERVER_PORT", c.Server.Port); err != nil {
		return fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if c.Tokenizer.MaxTokens, err = getEnvInt("MAX_PROMPT_TOKENS", c.Tokenizer.MaxTokens); err != nil {
		return fmt.Errorf("invalid MAX_PROMPT_TOKENS: %w", err)
	}
	if c.RateLimit.Burst, err = getEnvInt("RATE_LIMIT_BURST", c.RateLimit.Burst); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	if c.RateLimit.RPS, err = getEnvFloat("RATE_LIMIT_RPS", c.RateLimit.RPS); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if c.Transcript.Timeout, err = getEnvDuration("TRANSCRIPT_TIMEOUT", c.Transcript.Timeout); err != nil {
		return fmt.Errorf("invalid TRANSCRIPT_TIMEOUT: %w", err)
	}
	if c.Inference.Timeout, err = getEnvDuration("INFERENCE_TIMEOUT", c.Inference.Timeout); err != nil {
		return fmt.Errorf("invalid INFERENCE_TIMEOUT: %w", err)
	}
	if c.Tokenizer.Timeout, err = getEnvDuration("TOKENIZER_TIMEOUT", c.Tokenizer.Timeout); err != nil {
		return fmt.Errorf("invalid TOKENIZER_TIMEOUT: %w", err)
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports missing secrets for the selected inference backend and
// out-of-range limits. It is called once at startup so the process fails fast.
func (c *Config) Validate() error {
	var missing []string
	switch c.Inference.Provider {
	case ProviderHuggingFace:
		if c.Inference.HuggingFaceToken == "" {
			missing = append(missing, "HUGGINGFACE_API_TOKEN")
		}
		if c.Inference.URL == "" {
			missing = append(missing, "INFERENCE_URL")
		}
	case ProviderOpenAI:
		if c.Inference.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.Inference.AnthropicKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case ProviderOllama:
		if c.Inference.OllamaURL == "" {
			missing = append(missing, "OLLAMA_URL")
		}
	default:
		return fmt.Errorf("unknown INFERENCE_PROVIDER %q", c.Inference.Provider)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	if c.Tokenizer.MaxTokens <= 0 {
		return fmt.Errorf("MAX_PROMPT_TOKENS must be positive, got %d", c.Tokenizer.MaxTokens)
	}
	if c.Transcript.Timeout <= 0 || c.Inference.Timeout <= 0 || c.Tokenizer.Timeout <= 0 {
		return errors.New("outbound timeouts must be positive")
	}
	return nil
}

// SlogLevel maps Log.Level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
