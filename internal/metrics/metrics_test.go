package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	m := New()
	m.SummaryRequests.Add(3)
	m.InferenceCalls.Add(2)
	m.IncrFailure("prompt_too_large")
	m.IncrFailure("prompt_too_large")

	out := m.Format()
	assert.Contains(t, out, "summary_requests 3\n")
	assert.Contains(t, out, "inference_calls 2\n")
	assert.Contains(t, out, "summary_failures_prompt_too_large 2\n")
	assert.Contains(t, out, "transcript_errors 0\n")
}

func TestConcurrentIncrements(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.SummaryRequests.Add(1)
			m.IncrFailure("bad_payload")
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(50), snap["summary_requests"])
	assert.Equal(t, int64(50), snap["summary_failures_bad_payload"])
}

func TestTrackReturnsError(t *testing.T) {
	want := errors.New("boom")
	err := Track(context.Background(), "op", func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}
