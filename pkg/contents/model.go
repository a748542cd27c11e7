// Package contents implements the document-level API over the tree and
// checkpoint stores: notebook-aware save and read, content-type metadata,
// and checkpoint lifecycle. The same Manager surface is implemented by the
// router in pkg/contents/router, so callers compose single backends and
// mounted trees interchangeably.
package contents

import (
	"context"
	"time"

	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// ModelType classifies an API content model.
type ModelType string

const (
	ModelNotebook  ModelType = "notebook"
	ModelFile      ModelType = "file"
	ModelDirectory ModelType = "directory"
)

// Format names the wire encoding of a model's content.
const (
	FormatJSON   = "json"
	FormatText   = "text"
	FormatBase64 = "base64"
)

// Model is the structured result of a content operation: metadata always,
// content and children only when requested.
type Model struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Type         ModelType `json:"type"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
	Writable     bool      `json:"writable"`
	Mimetype     string    `json:"mimetype,omitempty"`
	Format       string    `json:"format,omitempty"`
	Content      []byte    `json:"content,omitempty"`
	Children     []Model   `json:"children,omitempty"`
}

// Checkpoint is the API-level view of a stored snapshot. IDs are strings on
// the wire even though stores key them numerically.
type Checkpoint struct {
	ID           string    `json:"id"`
	LastModified time.Time `json:"last_modified"`
}

// Manager is the document-level capability set. Both the single-backend
// Service and the multi-backend Router satisfy it.
type Manager interface {
	// Get returns the model at path. Directories come back with Children;
	// files carry Content only when withContent is set.
	Get(ctx context.Context, path string, withContent bool) (*Model, error)

	// Save writes content at path, creating the file or updating it in
	// place. Notebook content is structurally validated before any write.
	Save(ctx context.Context, path string, content []byte, ctype tree.ContentType) (*Model, error)

	// CreateDirectory creates an empty directory at path.
	CreateDirectory(ctx context.Context, path string) (*Model, error)

	// Delete removes the file or directory at path. A populated directory
	// needs recursive set, otherwise DirectoryNotEmpty.
	Delete(ctx context.Context, path string, recursive bool) error

	// Rename moves the file or directory at oldPath to newPath, descendants
	// included, and returns the model now at newPath.
	Rename(ctx context.Context, oldPath, newPath string) (*Model, error)

	// Exists reports whether any entry occupies path.
	Exists(ctx context.Context, path string) (bool, error)

	// CreateCheckpoint snapshots the file at path.
	CreateCheckpoint(ctx context.Context, path string) (*Checkpoint, error)

	// ListCheckpoints returns the file's checkpoints, newest first.
	ListCheckpoints(ctx context.Context, path string) ([]Checkpoint, error)

	// RestoreCheckpoint overwrites the file with the checkpoint's snapshot.
	RestoreCheckpoint(ctx context.Context, path, checkpointID string) (*Model, error)

	// DeleteCheckpoint removes a single checkpoint.
	DeleteCheckpoint(ctx context.Context, path, checkpointID string) error

	// Healthcheck reports whether the backing stores are reachable.
	Healthcheck(ctx context.Context) error
}

// mimetypeFor maps a stored content type to the mimetype advertised in
// models.
func mimetypeFor(t tree.ContentType) string {
	switch t {
	case tree.TypeNotebook:
		return "application/x-ipynb+json"
	case tree.TypeText:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// formatFor maps a stored content type to its wire encoding.
func formatFor(t tree.ContentType) string {
	switch t {
	case tree.TypeNotebook:
		return FormatJSON
	case tree.TypeText:
		return FormatText
	default:
		return FormatBase64
	}
}

// modelTypeFor maps a stored content type to the model type.
func modelTypeFor(t tree.ContentType) ModelType {
	if t == tree.TypeNotebook {
		return ModelNotebook
	}
	return ModelFile
}
