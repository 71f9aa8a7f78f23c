// Package transcript retrieves the caption track of a video as an ordered
// list of timed entries.
package transcript

import (
	"context"
	"errors"
	"strings"
)

// Failure kinds a Fetcher reports. Implementations wrap one of these so callers
// can classify with errors.Is.
var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrNoTranscriptFound   = errors.New("no transcript found in the requested languages")
	ErrRetrievalFailed     = errors.New("could not retrieve transcript")
)

// Entry is one caption line. Start and Duration are in seconds.
type Entry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Fetcher returns the caption entries of a video, trying languages in order.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) ([]Entry, error)
}

// Flatten joins entry texts with a single space, in order.
func Flatten(entries []Entry) string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return strings.Join(texts, " ")
}
