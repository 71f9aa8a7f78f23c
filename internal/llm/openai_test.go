package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "my-model", req["model"])
		assert.Equal(t, float64(300), req["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"my-model","choices":[{"index":0,"message":{"role":"assistant","content":"a summary"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "my-model", time.Second)
	out, err := p.Generate(context.Background(), "the prompt", DefaultParams)
	require.NoError(t, err)
	assert.Equal(t, "a summary", out)
}

func TestOpenAIErrors(t *testing.T) {
	t.Run("api error keeps status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
		}))
		defer srv.Close()

		_, err := NewOpenAIProvider("k", srv.URL+"/v1", "m", time.Second).Generate(context.Background(), "p", DefaultParams)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"c1","choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewOpenAIProvider("k", srv.URL+"/v1", "m", time.Second).Generate(context.Background(), "p", DefaultParams)
		var payloadErr *PayloadError
		require.ErrorAs(t, err, &payloadErr)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewOpenAIProvider("k", url+"/v1", "m", time.Second).Generate(context.Background(), "p", DefaultParams)
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
	})
}
