package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SlowThreshold is the duration after which Track logs an operation as slow.
const SlowThreshold = 10 * time.Second

// Metrics tracks operational counters for the summary pipeline.
type Metrics struct {
	SummaryRequests   atomic.Int64
	SummarySuccesses  atomic.Int64
	TranscriptFetches atomic.Int64
	TranscriptErrors  atomic.Int64
	TokenizerCalls    atomic.Int64
	InferenceCalls    atomic.Int64
	InferenceErrors   atomic.Int64
	RateLimitRejects  atomic.Int64

	mu       sync.Mutex
	failures map[string]int64
}

func New() *Metrics {
	return &Metrics{failures: make(map[string]int64)}
}

// IncrFailure counts a failed summary request under kind.
func (m *Metrics) IncrFailure(kind string) {
	m.mu.Lock()
	m.failures[kind]++
	m.mu.Unlock()
}

// Snapshot returns the current value of every counter.
func (m *Metrics) Snapshot() map[string]int64 {
	out := map[string]int64{
		"summary_requests":   m.SummaryRequests.Load(),
		"summary_successes":  m.SummarySuccesses.Load(),
		"transcript_fetches": m.TranscriptFetches.Load(),
		"transcript_errors":  m.TranscriptErrors.Load(),
		"tokenizer_calls":    m.TokenizerCalls.Load(),
		"inference_calls":    m.InferenceCalls.Load(),
		"inference_errors":   m.InferenceErrors.Load(),
		"rate_limit_rejects": m.RateLimitRejects.Load(),
	}
	m.mu.Lock()
	for kind, n := range m.failures {
		out["summary_failures_"+kind] = n
	}
	m.mu.Unlock()
	return out
}

// Format returns metrics as one "name value" line per counter, sorted by name.
func (m *Metrics) Format() string {
	snap := m.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, snap[k])
	}
	return sb.String()
}

// Track runs fn and logs a warning if it takes longer than SlowThreshold.
func Track(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > SlowThreshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
