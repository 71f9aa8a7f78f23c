package summary

import (
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failed summary request.
type Kind string

const (
	KindInvalidRequest        Kind = "invalid_request"
	KindTranscriptsDisabled   Kind = "transcripts_disabled"
	KindTranscriptNotFound    Kind = "transcript_not_found"
	KindTranscriptUnavailable Kind = "transcript_unavailable"
	KindTokenizer             Kind = "tokenizer"
	KindPromptTooLarge        Kind = "prompt_too_large"
	KindUpstreamHTTP          Kind = "upstream_http"
	KindModelLoading          Kind = "model_loading"
	KindInferenceUnreachable  Kind = "inference_unreachable"
	KindBadPayload            Kind = "bad_payload"
)

// Error is returned by Service.GetSummary for every failure. Status is the
// HTTP status the caller should answer with.
type Error struct {
	Kind    Kind
	Status  int
	Message string

	// Set for KindPromptTooLarge.
	Tokens int
	Limit  int

	// Upstream body for KindUpstreamHTTP, raw payload for KindBadPayload.
	Raw string

	// Set for KindModelLoading when the upstream gave an estimate.
	RetryAfter time.Duration

	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func invalidRequest(format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidRequest,
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf(format, args...),
	}
}

func promptTooLarge(tokens, limit int) *Error {
	return &Error{
		Kind:    KindPromptTooLarge,
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("prompt too large: %d tokens exceeds the limit of %d", tokens, limit),
		Tokens:  tokens,
		Limit:   limit,
	}
}

var loadingMessages = map[string]map[Lang]string{
	"huggingface": {
		LangFR: "Le modèle Hugging Face est en train de démarrer. Réessaie dans un instant.",
		LangEN: "The Hugging Face model is starting up. Please try again shortly.",
	},
	"": {
		LangFR: "Le modèle est en train de démarrer. Réessaie dans un instant.",
		LangEN: "The model is starting up. Please try again shortly.",
	},
}

// loadingMessage answers an upstream 503 in lang, naming Hugging Face only
// when it is the backend.
func loadingMessage(provider string, lang Lang) string {
	msgs, ok := loadingMessages[provider]
	if !ok {
		msgs = loadingMessages[""]
	}
	return msgs[lang]
}
