package handler

import (
	"net/http"
)

// ConnectionChecker reports whether a backing connection is up.
type ConnectionChecker interface {
	IsConnected() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	nats ConnectionChecker
}

// NewHealthHandler creates a new health handler. nats may be nil when the
// service runs without NATS.
func NewHealthHandler(nats ConnectionChecker) *HealthHandler {
	return &HealthHandler{
		nats: nats,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "The service is running",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.nats != nil && !h.nats.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
