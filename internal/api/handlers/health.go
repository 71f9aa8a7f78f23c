package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nikhilbhutani/ytsummary/internal/metrics"
)

type HealthHandler struct {
	provider string
	metrics  *metrics.Metrics
}

func NewHealthHandler(provider string, m *metrics.Metrics) *HealthHandler {
	return &HealthHandler{provider: provider, metrics: m}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "provider": h.provider})
}

func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.metrics.Format()))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
