// Package handlers implements the REST endpoints of the content API.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gmarchetti/inkwell/pkg/contents"
	"github.com/gmarchetti/inkwell/pkg/metrics"
)

// ContentsHandler serves the /api/contents endpoints over a content
// manager, single backend or routed tree alike.
//
// Endpoints:
//   - GET    /api/contents/*  - fetch a file model or directory listing
//   - PUT    /api/contents/*  - save a file or create a directory
//   - PATCH  /api/contents/*  - rename to the path in the request body
//   - DELETE /api/contents/*  - delete, ?recursive=true for populated dirs
type ContentsHandler struct {
	manager contents.Manager
}

// NewContentsHandler creates a contents handler over manager.
func NewContentsHandler(manager contents.Manager) *ContentsHandler {
	return &ContentsHandler{manager: manager}
}

// requestPath extracts the content path from the route wildcard. The empty
// wildcard addresses the root.
func requestPath(r *http.Request) string {
	return chi.URLParam(r, "*")
}

// Get handles GET /api/contents/*.
//
// The content query parameter controls payload loading: content=0 returns
// metadata only. Directory listings always include children.
func (h *ContentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	withContent := r.URL.Query().Get("content") != "0"

	m, err := h.manager.Get(r.Context(), requestPath(r), withContent)
	if err != nil {
		metrics.ObserveOperation("get", outcome(err), start)
		writeError(w, err)
		return
	}

	metrics.ObserveOperation("get", "ok", start)
	writeJSON(w, http.StatusOK, okResponse(toWire(m)))
}

// Save handles PUT /api/contents/*.
//
// A body of type "directory" creates a directory; everything else writes
// file content, creating the file or updating it in place.
func (h *ContentsHandler) Save(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := requestPath(r)

	var req saveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Type == string(contents.ModelDirectory) {
		m, err := h.manager.CreateDirectory(r.Context(), path)
		if err != nil {
			metrics.ObserveOperation("create_directory", outcome(err), start)
			writeError(w, err)
			return
		}
		metrics.ObserveOperation("create_directory", "ok", start)
		writeJSON(w, http.StatusCreated, okResponse(toWire(m)))
		return
	}

	content, ctype, err := decodeSave(path, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	m, err := h.manager.Save(r.Context(), path, content, ctype)
	if err != nil {
		metrics.ObserveOperation("save", outcome(err), start)
		writeError(w, err)
		return
	}

	metrics.ObserveOperation("save", "ok", start)
	writeJSON(w, http.StatusOK, okResponse(toWire(m)))
}

// Rename handles PATCH /api/contents/*, moving the entry to the path named
// in the body.
func (h *ContentsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req renameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeBadRequest(w, "missing destination path")
		return
	}

	m, err := h.manager.Rename(r.Context(), requestPath(r), req.Path)
	if err != nil {
		metrics.ObserveOperation("rename", outcome(err), start)
		writeError(w, err)
		return
	}

	metrics.ObserveOperation("rename", "ok", start)
	writeJSON(w, http.StatusOK, okResponse(toWire(m)))
}

// Delete handles DELETE /api/contents/*. Directories with children need
// recursive=true, otherwise the call fails with DirectoryNotEmpty.
func (h *ContentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	recursive := r.URL.Query().Get("recursive") == "true"

	if err := h.manager.Delete(r.Context(), requestPath(r), recursive); err != nil {
		metrics.ObserveOperation("delete", outcome(err), start)
		writeError(w, err)
		return
	}

	metrics.ObserveOperation("delete", "ok", start)
	w.WriteHeader(http.StatusNoContent)
}

// outcome labels a metrics sample with the error code name, or "ok".
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := codeName(err); code != "" {
		return code
	}
	return "error"
}
