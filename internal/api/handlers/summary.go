package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/nikhilbhutani/ytsummary/internal/summary"
)

type Summarizer interface {
	GetSummary(ctx context.Context, videoID string, lang summary.Lang) (*summary.Result, error)
}

type SummaryHandler struct {
	svc Summarizer
}

func NewSummaryHandler(svc Summarizer) *SummaryHandler {
	return &SummaryHandler{svc: svc}
}

// Get serves GET /summary/?video_id=<id>&lang=<fr|en>.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.GetSummary(r.Context(), q.Get("video_id"), summary.ParseLang(q.Get("lang")))
	if err != nil {
		writeSummaryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": res.Summary})
}

func writeSummaryError(w http.ResponseWriter, err error) {
	var sErr *summary.Error
	if !errors.As(err, &sErr) {
		slog.Error("summary: unclassified error", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sErr.RetryAfter > 0 {
		secs := int(math.Ceil(sErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeDetail(w, sErr.Status, sErr.Message)
}
