package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	if model == "" {
		model = "mistral"
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaGenerateReq struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateResp struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

func (p *OllamaProvider) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	oReq := ollamaGenerateReq{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: params.Temperature,
			NumPredict:  params.MaxLength,
		},
	}

	body, _ := json.Marshal(oReq)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransportError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{Provider: p.Name(), Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{Provider: p.Name(), StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var oResp ollamaGenerateResp
	if err := json.Unmarshal(raw, &oResp); err != nil {
		return "", &PayloadError{Provider: p.Name(), Raw: string(raw), Err: err}
	}
	if oResp.Response == nil {
		return "", &PayloadError{Provider: p.Name(), Raw: string(raw), Err: fmt.Errorf("missing response field")}
	}
	return *oResp.Response, nil
}
