// Package errors provides the error taxonomy shared by every inkwell layer.
// It is a leaf package with no internal dependencies so that stores, the
// content manager, and the router can all import it without cycles.
//
// Import graph: errors <- path <- stores <- contents <- router
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies a content-store failure.
type Code int

const (
	// CodeInvalidPath indicates a malformed or traversal path. Caller error,
	// never retried.
	CodeInvalidPath Code = iota + 1

	// CodeNotFound indicates the requested file or directory does not exist.
	CodeNotFound

	// CodeParentNotFound indicates the parent directory of the target path
	// does not exist.
	CodeParentNotFound

	// CodeAlreadyExists indicates a file or directory already occupies the
	// target path.
	CodeAlreadyExists

	// CodeDirectoryNotEmpty indicates a non-recursive delete was attempted on
	// a populated directory.
	CodeDirectoryNotEmpty

	// CodeCheckpointNotFound indicates the referenced checkpoint does not
	// exist for the given file.
	CodeCheckpointNotFound

	// CodeInvalidNotebook indicates notebook content failed structural
	// validation. The stored data is left unmodified.
	CodeInvalidNotebook

	// CodeConflict indicates a transactional conflict with a concurrent
	// operation. Transient; the caller may retry.
	CodeConflict

	// CodeNoBackend indicates no mount matches the requested path and no
	// root mount is configured.
	CodeNoBackend

	// CodePathRejected indicates a mount's path validator refused the path.
	CodePathRejected

	// CodeUnavailable indicates the underlying database or delegated backend
	// is unreachable or timed out. Transient; the caller may retry.
	CodeUnavailable

	// CodeInvalidArgument indicates an argument outside the path taxonomy was
	// rejected, such as a rename spanning two backends.
	CodeInvalidArgument

	// CodeFileTooLarge indicates content exceeds the configured maximum file
	// size.
	CodeFileTooLarge
)

// String returns a human-readable name for the code.
func (c Code) String() string {
	switch c {
	case CodeInvalidPath:
		return "InvalidPath"
	case CodeNotFound:
		return "NotFound"
	case CodeParentNotFound:
		return "ParentNotFound"
	case CodeAlreadyExists:
		return "AlreadyExists"
	case CodeDirectoryNotEmpty:
		return "DirectoryNotEmpty"
	case CodeCheckpointNotFound:
		return "CheckpointNotFound"
	case CodeInvalidNotebook:
		return "InvalidNotebook"
	case CodeConflict:
		return "Conflict"
	case CodeNoBackend:
		return "NoBackendConfigured"
	case CodePathRejected:
		return "PathRejected"
	case CodeUnavailable:
		return "BackendUnavailable"
	case CodeInvalidArgument:
		return "InvalidArgument"
	case CodeFileTooLarge:
		return "FileTooLarge"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is a typed content-store error carrying a classification code and the
// path it refers to.
type Error struct {
	Code    Code
	Message string
	Path    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable reports whether the failure is transient and worth retrying.
func (e *Error) Retryable() bool {
	return e.Code == CodeConflict || e.Code == CodeUnavailable
}

// CodeOf extracts the classification code from err, or 0 if err is not an
// *Error.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// WithPath returns a copy of err with its path replaced. Non-*Error values
// are returned unchanged. The router uses this to re-prefix paths in errors
// surfaced from a mounted backend.
func WithPath(err error, path string) error {
	var e *Error
	if !stderrors.As(err, &e) {
		return err
	}
	clone := *e
	clone.Path = path
	return &clone
}

// NewInvalidPath creates an InvalidPath error.
func NewInvalidPath(path, reason string) *Error {
	return &Error{Code: CodeInvalidPath, Message: reason, Path: path}
}

// NewNotFound creates a NotFound error for the given entity kind.
func NewNotFound(path, kind string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", kind), Path: path}
}

// NewParentNotFound creates a ParentNotFound error.
func NewParentNotFound(path string) *Error {
	return &Error{Code: CodeParentNotFound, Message: "parent directory not found", Path: path}
}

// NewAlreadyExists creates an AlreadyExists error.
func NewAlreadyExists(path string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: "already exists", Path: path}
}

// NewDirectoryNotEmpty creates a DirectoryNotEmpty error.
func NewDirectoryNotEmpty(path string) *Error {
	return &Error{Code: CodeDirectoryNotEmpty, Message: "directory not empty", Path: path}
}

// NewCheckpointNotFound creates a CheckpointNotFound error.
func NewCheckpointNotFound(path, checkpointID string) *Error {
	return &Error{
		Code:    CodeCheckpointNotFound,
		Message: fmt.Sprintf("no checkpoint %s", checkpointID),
		Path:    path,
	}
}

// NewInvalidNotebook creates an InvalidNotebook error.
func NewInvalidNotebook(path, reason string) *Error {
	return &Error{Code: CodeInvalidNotebook, Message: reason, Path: path}
}

// NewConflict creates a Conflict error.
func NewConflict(path, operation string) *Error {
	return &Error{
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s: conflicting concurrent operation", operation),
		Path:    path,
	}
}

// NewNoBackend creates a NoBackendConfigured error.
func NewNoBackend(path string) *Error {
	return &Error{Code: CodeNoBackend, Message: "no backend configured for path", Path: path}
}

// NewPathRejected creates a PathRejected error.
func NewPathRejected(path string) *Error {
	return &Error{Code: CodePathRejected, Message: "path rejected by mount validator", Path: path}
}

// NewUnavailable creates a BackendUnavailable error.
func NewUnavailable(operation string, cause error) *Error {
	return &Error{
		Code:    CodeUnavailable,
		Message: fmt.Sprintf("%s: backend unavailable: %v", operation, cause),
	}
}

// NewInvalidArgument creates an InvalidArgument error.
func NewInvalidArgument(message string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message}
}

// NewFileTooLarge creates a FileTooLarge error.
func NewFileTooLarge(path string, size, limit int64) *Error {
	return &Error{
		Code:    CodeFileTooLarge,
		Message: fmt.Sprintf("content is %d bytes, limit is %d", size, limit),
		Path:    path,
	}
}
