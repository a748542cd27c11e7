package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmarchetti/inkwell/pkg/contents"
	cpmem "github.com/gmarchetti/inkwell/pkg/store/checkpoints/memory"
	treemem "github.com/gmarchetti/inkwell/pkg/store/tree/memory"
)

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type modelPayload struct {
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	Type     string          `json:"type"`
	Size     int64           `json:"size"`
	Format   string          `json:"format"`
	Mimetype string          `json:"mimetype"`
	Content  json.RawMessage `json:"content"`
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	ts := treemem.New()
	svc := contents.NewService(ts, cpmem.New(ts, 5))
	return NewRouter(svc, 5*time.Second)
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func saveBody(modelType, format string, content any) map[string]any {
	return map[string]any{
		"type":    modelType,
		"format":  format,
		"content": content,
	}
}

func TestSaveAndGetTextFile(t *testing.T) {
	h := newTestHandler(t)

	rec, env := doRequest(t, h, http.MethodPut, "/api/contents/notes.txt",
		saveBody("file", "text", "hello api"))
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	assert.Equal(t, "ok", env.Status)

	rec, env = doRequest(t, h, http.MethodGet, "/api/contents/notes.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m modelPayload
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, "notes.txt", m.Path)
	assert.Equal(t, "file", m.Type)
	assert.Equal(t, "text", m.Format)
	assert.Equal(t, int64(9), m.Size)
	assert.Equal(t, `"hello api"`, string(m.Content))
}

func TestSaveNotebook(t *testing.T) {
	h := newTestHandler(t)
	nb := map[string]any{
		"nbformat":       4,
		"nbformat_minor": 5,
		"metadata":       map[string]any{},
		"cells":          []any{},
	}

	rec, env := doRequest(t, h, http.MethodPut, "/api/contents/nb.ipynb",
		saveBody("notebook", "json", nb))
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, env = doRequest(t, h, http.MethodGet, "/api/contents/nb.ipynb", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m modelPayload
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, "notebook", m.Type)
	assert.Equal(t, "application/x-ipynb+json", m.Mimetype)
	assert.JSONEq(t, `{"nbformat":4,"nbformat_minor":5,"metadata":{},"cells":[]}`, string(m.Content))
}

func TestSaveInvalidNotebook(t *testing.T) {
	h := newTestHandler(t)

	rec, env := doRequest(t, h, http.MethodPut, "/api/contents/bad.ipynb",
		saveBody("notebook", "json", map[string]any{"cells": []any{}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidNotebook", env.Error)
}

func TestCreateDirectoryAndList(t *testing.T) {
	h := newTestHandler(t)

	rec, _ := doRequest(t, h, http.MethodPut, "/api/contents/proj",
		map[string]any{"type": "directory"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = doRequest(t, h, http.MethodPut, "/api/contents/proj/f.txt",
		saveBody("file", "text", "x"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, h, http.MethodGet, "/api/contents/proj", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m struct {
		Type    string         `json:"type"`
		Content []modelPayload `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, "directory", m.Type)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "proj/f.txt", m.Content[0].Path)
}

func TestGetMissingPath(t *testing.T) {
	h := newTestHandler(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/contents/ghost.txt", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", env.Error)
}

func TestRename(t *testing.T) {
	h := newTestHandler(t)

	rec, _ := doRequest(t, h, http.MethodPut, "/api/contents/old.txt",
		saveBody("file", "text", "x"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, h, http.MethodPatch, "/api/contents/old.txt",
		map[string]string{"path": "new.txt"})
	require.Equal(t, http.StatusOK, rec.Code)

	var m modelPayload
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, "new.txt", m.Path)

	rec, _ = doRequest(t, h, http.MethodGet, "/api/contents/old.txt", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSemantics(t *testing.T) {
	h := newTestHandler(t)

	rec, _ := doRequest(t, h, http.MethodPut, "/api/contents/d",
		map[string]any{"type": "directory"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = doRequest(t, h, http.MethodPut, "/api/contents/d/f.txt",
		saveBody("file", "text", "x"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, h, http.MethodDelete, "/api/contents/d", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DirectoryNotEmpty", env.Error)

	rec, _ = doRequest(t, h, http.MethodDelete, "/api/contents/d?recursive=true", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCheckpointEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec, _ := doRequest(t, h, http.MethodPut, "/api/contents/f.txt",
		saveBody("file", "text", "original"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, h, http.MethodPost, "/api/checkpoints/f.txt", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var cp contents.Checkpoint
	require.NoError(t, json.Unmarshal(env.Data, &cp))
	assert.Equal(t, "1", cp.ID)

	rec, _ = doRequest(t, h, http.MethodPut, "/api/contents/f.txt",
		saveBody("file", "text", "changed"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doRequest(t, h, http.MethodPut, "/api/checkpoints/f.txt",
		map[string]string{"id": cp.ID})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, env = doRequest(t, h, http.MethodGet, "/api/contents/f.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var m modelPayload
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, `"original"`, string(m.Content))

	rec, env = doRequest(t, h, http.MethodGet, "/api/checkpoints/f.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cps []contents.Checkpoint
	require.NoError(t, json.Unmarshal(env.Data, &cps))
	assert.Len(t, cps, 1)

	rec, _ = doRequest(t, h, http.MethodDelete, "/api/checkpoints/f.txt?id=1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = doRequest(t, h, http.MethodDelete, "/api/checkpoints/f.txt?id=1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CheckpointNotFound", env.Error)
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec, env := doRequest(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", env.Status)

	rec, env = doRequest(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", env.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
