package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// Handler serves the liveness (Live) and readiness (Ready) probes, which
// httpapi.API mounts at /health and /ready respectively.
// Grounded on the teacher's health.Server.handleHealth/handleLiveness split.
type Handler struct {
	checker *Checker
}

// NewHandler builds a Handler backed by checker.
func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

// Live answers a liveness probe: 200 as long as the process can run this
// handler at all, independent of storage reachability.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready answers a readiness probe: 503 when the aggregated Report is
// unhealthy (storage unreachable, or process memory at the unhealthy
// threshold), 200 otherwise, with the full Report in the body either way.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	report := h.checker.CheckAll(r.Context())
	status := http.StatusOK
	if report.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
