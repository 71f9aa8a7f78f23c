package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBytes = 1 << 20

// HuggingFaceProvider calls the Hugging Face serverless inference API for a
// text-generation model.
type HuggingFaceProvider struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewHuggingFaceProvider(url, token string, timeout time.Duration) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *HuggingFaceProvider) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string `json:"inputs"`
	Parameters Params `json:"parameters"`
}

type hfResult struct {
	GeneratedText *string `json:"generated_text"`
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	body, _ := json.Marshal(hfRequest{Inputs: prompt, Parameters: params})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("huggingface request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.token)

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

	var results []hfResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return "", &PayloadError{Provider: p.Name(), Raw: string(raw), Err: err}
	}
	if len(results) == 0 {
		return "", &PayloadError{Provider: p.Name(), Raw: string(raw), Err: errors.New("empty result list")}
	}
	if results[0].GeneratedText == nil {
		return "", &PayloadError{Provider: p.Name(), Raw: string(raw), Err: errors.New("missing generated_text")}
	}

	return *results[0].GeneratedText, nil
}
