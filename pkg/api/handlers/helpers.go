package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
)

// response is the standard API response wrapper.
//
//   - Status indicates the overall result ("ok", "error", "healthy",
//     "unhealthy")
//   - Data contains the response payload (optional)
//   - Error names the failure kind when Status is "error"; Message carries
//     the human-readable detail
type response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// okResponse creates a generic successful response.
func okResponse(data interface{}) response {
	return response{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// healthyResponse creates a successful health check response.
func healthyResponse(data interface{}) response {
	return response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// unhealthyResponse creates a failed health check response.
func unhealthyResponse(errMsg string) response {
	return response{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

// writeError maps a content error onto its HTTP status and writes the error
// response. Typed errors keep their code name in the error field so clients
// can switch on it.
func writeError(w http.ResponseWriter, err error) {
	var e *cerr.Error
	if !errors.As(err, &e) {
		writeJSON(w, http.StatusInternalServerError, response{
			Status:    "error",
			Timestamp: time.Now().UTC(),
			Error:     "InternalError",
			Message:   err.Error(),
		})
		return
	}

	writeJSON(w, statusFor(e.Code), response{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     e.Code.String(),
		Message:   e.Error(),
	})
}

// writeBadRequest writes an InvalidArgument error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, cerr.NewInvalidArgument(message))
}

// statusFor maps error codes to HTTP status codes. Missing entries are
// caller errors, so unknown codes map to 400 rather than 500.
func statusFor(code cerr.Code) int {
	switch code {
	case cerr.CodeNotFound, cerr.CodeParentNotFound, cerr.CodeCheckpointNotFound, cerr.CodeNoBackend:
		return http.StatusNotFound
	case cerr.CodeAlreadyExists, cerr.CodeConflict:
		return http.StatusConflict
	case cerr.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case cerr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// codeName returns the taxonomy name of a typed error, or "" for untyped
// errors.
func codeName(err error) string {
	if code := cerr.CodeOf(err); code != 0 {
		return code.String()
	}
	return ""
}

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns false if decoding fails; the error response is already written.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid request body")
		return false
	}
	return true
}
