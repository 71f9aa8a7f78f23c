package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Remote counts tokens with a text-generation-inference /tokenize endpoint,
// so the count uses the serving model's own vocabulary.
type Remote struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewRemote(url, bearerToken string, timeout time.Duration) *Remote {
	return &Remote{
		url:        url,
		token:      bearerToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type tokenizeReq struct {
	Inputs string `json:"inputs"`
}

func (r *Remote) Count(ctx context.Context, text string) (int, error) {
	body, _ := json.Marshal(tokenizeReq{Inputs: text})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("tokenize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("tokenize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("tokenize: status %d: %s", resp.StatusCode, msg)
	}

	// Each element is {"id","text","start","stop"}; only the length matters.
	var tokens []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return 0, fmt.Errorf("tokenize decode: %w", err)
	}
	return len(tokens), nil
}
