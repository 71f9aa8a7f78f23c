package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider sends the prompt as a single user message to any
// OpenAI-compatible chat completions endpoint (OpenAI, the Hugging Face
// router, vLLM, ...).
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	oReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   params.MaxLength,
		Temperature: float32(params.Temperature),
	}

	resp, err := p.client.CreateChatCompletion(ctx, oReq)
	if err != nil {
		return "", p.translateError(err)
	}

	if len(resp.Choices) == 0 {
		raw, _ := json.Marshal(resp)
		return "", &PayloadError{Provider: p.Name(), Raw: string(raw), Err: errors.New("no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &HTTPError{Provider: p.Name(), StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &HTTPError{Provider: p.Name(), StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return &TransportError{Provider: p.Name(), Err: err}
}
