package handlers

import (
	"net/http"

	"github.com/gmarchetti/inkwell/pkg/contents"
)

// HealthHandler handles health check endpoints.
//
//   - Liveness probe: is the server process running?
//   - Readiness probe: are the content backends reachable?
type HealthHandler struct {
	manager contents.Manager
}

// NewHealthHandler creates a health handler. The manager may be nil, in
// which case readiness always reports unhealthy.
func NewHealthHandler(manager contents.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// Liveness handles GET /health. It succeeds whenever the HTTP server is
// responsive, for use as a liveness probe.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "inkwell",
	}))
}

// Readiness handles GET /health/ready, probing every content backend.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("content manager not initialized"))
		return
	}

	if err := h.manager.Healthcheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(nil))
}
