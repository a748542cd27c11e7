package handlers

import (
	"net/http"
	"time"

	"github.com/gmarchetti/inkwell/pkg/contents"
	"github.com/gmarchetti/inkwell/pkg/metrics"
)

// CheckpointsHandler serves the /api/checkpoints endpoints.
//
// Endpoints:
//   - GET    /api/checkpoints/*       - list a file's checkpoints, newest first
//   - POST   /api/checkpoints/*       - create a checkpoint of the file
//   - PUT    /api/checkpoints/*       - restore the checkpoint named in the body
//   - DELETE /api/checkpoints/*?id=N  - delete a single checkpoint
type CheckpointsHandler struct {
	manager contents.Manager
}

// NewCheckpointsHandler creates a checkpoints handler over manager.
func NewCheckpointsHandler(manager contents.Manager) *CheckpointsHandler {
	return &CheckpointsHandler{manager: manager}
}

// List handles GET /api/checkpoints/*.
func (h *CheckpointsHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	cps, err := h.manager.ListCheckpoints(r.Context(), requestPath(r))
	if err != nil {
		metrics.ObserveOperation("list_checkpoints", outcome(err), start)
		writeError(w, err)
		return
	}

	metrics.ObserveOperation("list_checkpoints", "ok", start)
	writeJSON(w, http.StatusOK, okResponse(cps))
}

// Create handles POST /api/checkpoints/*.
func (h *CheckpointsHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	cp, err := h.manager.CreateCheckpoint(r.Context(), requestPath(r))
	if err != nil {
		metrics.ObserveOperation("create_checkpoint", outcome(err), start)
		writeError(w, err)
		return
	}

	metrics.ObserveOperation("create_checkpoint", "ok", start)
	writeJSON(w, http.StatusCreated, okResponse(cp))
}

// Restore handles PUT /api/checkpoints/*, overwriting the file with the
// snapshot named in the body.
func (h *CheckpointsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req restoreRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeBadRequest(w, "missing checkpoint id")
		return
	}

	m, err := h.manager.RestoreCheckpoint(r.Context(), requestPath(r), req.ID)
	if err != nil {
		metrics.ObserveOperation("restore_checkpoint", outcome(err), start)
		writeError(w, err)
		return
	}

	metrics.ObserveOperation("restore_checkpoint", "ok", start)
	writeJSON(w, http.StatusOK, okResponse(toWire(m)))
}

// Delete handles DELETE /api/checkpoints/*?id=N.
func (h *CheckpointsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id := r.URL.Query().Get("id")
	if id == "" {
		writeBadRequest(w, "missing checkpoint id")
		return
	}

	if err := h.manager.DeleteCheckpoint(r.Context(), requestPath(r), id); err != nil {
		metrics.ObserveOperation("delete_checkpoint", outcome(err), start)
		writeError(w, err)
		return
	}

	metrics.ObserveOperation("delete_checkpoint", "ok", start)
	w.WriteHeader(http.StatusNoContent)
}
