package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikhilbhutani/ytsummary/internal/llm"
	"github.com/nikhilbhutani/ytsummary/internal/metrics"
	"github.com/nikhilbhutani/ytsummary/internal/prompt"
	"github.com/nikhilbhutani/ytsummary/internal/transcript"
	"github.com/nikhilbhutani/ytsummary/pkg/tokenizer"
)

// Lang is the output language of a summary.
type Lang string

const (
	LangFR Lang = "fr"
	LangEN Lang = "en"

	DefaultLang = LangFR
)

// DefaultMaxTokens is the prompt size ceiling of the default model.
const DefaultMaxTokens = 32768

// TranscriptLanguages is the caption preference order. It does not depend on
// the requested output language.
var TranscriptLanguages = []string{"fr", "en"}

// ParseLang maps a query value to a Lang. The empty string selects
// DefaultLang; other values are passed through for GetSummary to validate.
func ParseLang(s string) Lang {
	if s == "" {
		return DefaultLang
	}
	return Lang(s)
}

type Result struct {
	Summary string `json:"summary"`
	Tokens  int    `json:"-"`
}

type Options struct {
	MaxTokens         int
	Params            llm.Params
	TranscriptTimeout time.Duration
	TokenizerTimeout  time.Duration
	InferenceTimeout  time.Duration
}

// Service turns a video id into a summary. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	transcripts transcript.Fetcher
	tokens      tokenizer.Counter
	generator   llm.Generator
	metrics     *metrics.Metrics
	opts        Options
}

func NewService(f transcript.Fetcher, c tokenizer.Counter, g llm.Generator, m *metrics.Metrics, opts Options) *Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Params == (llm.Params{}) {
		opts.Params = llm.DefaultParams
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		transcripts: f,
		tokens:      c,
		generator:   g,
		metrics:     m,
		opts:        opts,
	}
}

// GetSummary fetches the transcript of videoID and asks the model for a
// summary in lang. Every failure is a *Error.
func (s *Service) GetSummary(ctx context.Context, videoID string, lang Lang) (*Result, error) {
	s.metrics.SummaryRequests.Add(1)

	res, err := s.getSummary(ctx, videoID, lang)
	if err != nil {
		var sErr *Error
		if errors.As(err, &sErr) {
			s.metrics.IncrFailure(string(sErr.Kind))
			slog.Warn("summary failed",
				"video_id", videoID,
				"lang", string(lang),
				"kind", string(sErr.Kind),
				"status", sErr.Status,
				"error", err,
			)
		}
		return nil, err
	}

	s.metrics.SummarySuccesses.Add(1)
	return res, nil
}

func (s *Service) getSummary(ctx context.Context, videoID string, lang Lang) (*Result, error) {
	if videoID == "" {
		return nil, invalidRequest("video_id is required")
	}
	if lang != LangFR && lang != LangEN {
		return nil, invalidRequest("lang must be one of fr, en; got %q", lang)
	}

	entries, err := s.fetchTranscript(ctx, videoID)
	if err != nil {
		return nil, err
	}

	text := prompt.BuildSummary(string(lang), transcript.Flatten(entries))

	n, err := s.countTokens(ctx, text)
	if err != nil {
		return nil, err
	}
	if n > s.opts.MaxTokens {
		return nil, promptTooLarge(n, s.opts.MaxTokens)
	}

	generated, err := s.generate(ctx, text, lang)
	if err != nil {
		return nil, err
	}

	return &Result{Summary: prompt.ExtractAfterMarker(generated), Tokens: n}, nil
}

func (s *Service) fetchTranscript(ctx context.Context, videoID string) ([]transcript.Entry, error) {
	ctx, cancel := withTimeout(ctx, s.opts.TranscriptTimeout)
	defer cancel()

	s.metrics.TranscriptFetches.Add(1)
	entries, err := s.transcripts.Fetch(ctx, videoID, TranscriptLanguages)
	if err == nil {
		return entries, nil
	}

	s.metrics.TranscriptErrors.Add(1)
	switch {
	case errors.Is(err, transcript.ErrTranscriptsDisabled):
		return nil, &Error{Kind: KindTranscriptsDisabled, Status: http.StatusForbidden, Message: err.Error(), Err: err}
	case errors.Is(err, transcript.ErrNoTranscriptFound):
		return nil, &Error{Kind: KindTranscriptNotFound, Status: http.StatusNotFound, Message: err.Error(), Err: err}
	default:
		return nil, &Error{Kind: KindTranscriptUnavailable, Status: http.StatusBadGateway, Message: err.Error(), Err: err}
	}
}

func (s *Service) countTokens(ctx context.Context, text string) (int, error) {
	ctx, cancel := withTimeout(ctx, s.opts.TokenizerTimeout)
	defer cancel()

	s.metrics.TokenizerCalls.Add(1)
	n, err := s.tokens.Count(ctx, text)
	if err != nil {
		return 0, &Error{
			Kind:    KindTokenizer,
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("token count failed: %v", err),
			Err:     err,
		}
	}
	return n, nil
}

func (s *Service) generate(ctx context.Context, text string, lang Lang) (string, error) {
	ctx, cancel := withTimeout(ctx, s.opts.InferenceTimeout)
	defer cancel()

	s.metrics.InferenceCalls.Add(1)
	var generated string
	err := metrics.Track(ctx, "inference."+s.generator.Name(), func(ctx context.Context) error {
		var err error
		generated, err = s.generator.Generate(ctx, text, s.opts.Params)
		return err
	})
	if err == nil {
		return generated, nil
	}

	s.metrics.InferenceErrors.Add(1)
	return "", inferenceError(err, s.generator.Name(), lang)
}

func inferenceError(err error, provider string, lang Lang) *Error {
	var httpErr *llm.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.IsLoading() {
			return &Error{
				Kind:       KindModelLoading,
				Status:     http.StatusServiceUnavailable,
				Message:    loadingMessage(provider, lang),
				Raw:        httpErr.Body,
				RetryAfter: httpErr.RetryAfter(),
				Err:        err,
			}
		}
		status := httpErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return &Error{
			Kind:    KindUpstreamHTTP,
			Status:  status,
			Message: fmt.Sprintf("inference error %d: %s", httpErr.StatusCode, httpErr.Body),
			Raw:     httpErr.Body,
			Err:     err,
		}
	}

	var payloadErr *llm.PayloadError
	if errors.As(err, &payloadErr) {
		return &Error{
			Kind:    KindBadPayload,
			Status:  http.StatusInternalServerError,
			Message: "unexpected inference response: " + payloadErr.Raw,
			Raw:     payloadErr.Raw,
			Err:     err,
		}
	}

	return &Error{
		Kind:    KindInferenceUnreachable,
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("communication failure with the inference service: %v", err),
		Err:     err,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
