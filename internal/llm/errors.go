package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// HTTPError is a non-2xx answer from the inference service.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsLoading reports whether the model is still warming up.
func (e *HTTPError) IsLoading() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

// RetryAfter returns the upstream's estimated warm-up time, or 0 when the body
// does not carry one. Hugging Face answers 503 with {"estimated_time": 20.0}.
func (e *HTTPError) RetryAfter() time.Duration {
	var body struct {
		EstimatedTime float64 `json:"estimated_time"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err != nil || body.EstimatedTime <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(body.EstimatedTime)) * time.Second
}

// TransportError means the inference service could not be reached or the
// exchange was cut short (DNS, connect, timeout, truncated body).
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: communication failure: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PayloadError is a successful HTTP exchange whose body does not have the
// expected shape. Raw holds the body for diagnosis.
type PayloadError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: unexpected response: %v: %s", e.Provider, e.Err, e.Raw)
	}
	return fmt.Sprintf("%s: unexpected response: %s", e.Provider, e.Raw)
}

func (e *PayloadError) Unwrap() error { return e.Err }
