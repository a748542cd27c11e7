// Package tree defines the relational tree store interface: a hierarchy of
// directories and files addressed by canonical paths, with transactional
// create/read/update/delete/move/list semantics.
//
// Two implementations exist: postgres (the production store) and memory
// (tests and lightweight mounts). Both satisfy the same contracts, expressed
// through the shared error taxonomy in pkg/contents/errors.
package tree

import (
	"context"
	"time"
)

// ContentType classifies the payload of a file row.
type ContentType string

const (
	// TypeNotebook marks structurally validated notebook documents.
	TypeNotebook ContentType = "notebook"

	// TypeText marks UTF-8 text files.
	TypeText ContentType = "text"

	// TypeBinary marks opaque binary files.
	TypeBinary ContentType = "binary"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case TypeNotebook, TypeText, TypeBinary:
		return true
	}
	return false
}

// Directory is a tree node that may contain children. The root directory has
// the empty canonical path and no parent.
type Directory struct {
	Path       string
	ParentPath string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// File is a leaf document owned by its parent directory.
//
// Revision increases by one on every content update, including checkpoint
// restores. Content is nil when the file was fetched without content.
type File struct {
	Path       string
	ParentPath string
	Content    []byte
	Type       ContentType
	Size       int64
	Revision   int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Listing holds the immediate children of a directory, each slice ordered by
// name. Files carry no content.
type Listing struct {
	Directory   Directory
	Files       []File
	Directories []Directory
}

// Store is the hierarchical tree store. Every operation is scoped to a
// single transaction on the underlying substrate; multi-row operations
// (recursive delete, subtree move) are atomic end to end.
//
// Paths passed to a Store must be canonical (see pkg/contents/path); every
// operation normalizes its inputs and fails with InvalidPath on malformed
// input. Concurrent conflicting operations surface as Conflict and are
// retryable by the caller.
type Store interface {
	// CreateFile inserts a new file at path with revision 1. Fails with
	// ParentNotFound if the parent directory row does not exist and
	// AlreadyExists if any row occupies path.
	CreateFile(ctx context.Context, path string, content []byte, ctype ContentType) (*File, error)

	// CreateDirectory inserts a new directory at path, with the same parent
	// and occupancy checks as CreateFile.
	CreateDirectory(ctx context.Context, path string) (*Directory, error)

	// GetFile returns the file at path, with content only when withContent
	// is set. Fails with NotFound.
	GetFile(ctx context.Context, path string, withContent bool) (*File, error)

	// GetDirectory returns the directory row at path. Fails with NotFound.
	GetDirectory(ctx context.Context, path string) (*Directory, error)

	// ListDirectory returns the immediate children of the directory at path,
	// ordered by name. Fails with NotFound.
	ListDirectory(ctx context.Context, path string) (*Listing, error)

	// UpdateFile replaces the file's content, recomputes its size, bumps its
	// revision, and refreshes its modification timestamp. Fails with
	// NotFound.
	UpdateFile(ctx context.Context, path string, content []byte) (*File, error)

	// DeleteFile removes the file row at path (checkpoints cascade). Fails
	// with NotFound.
	DeleteFile(ctx context.Context, path string) error

	// DeleteDirectory removes the directory at path. Without recursive, a
	// populated directory fails with DirectoryNotEmpty and the tree is left
	// unchanged; with recursive, the directory and every descendant row are
	// removed in one transaction. The root cannot be deleted.
	DeleteDirectory(ctx context.Context, path string, recursive bool) error

	// Move renames the row at src to dst, rewriting every descendant path in
	// the same transaction for directory moves. Fails with NotFound if src
	// is absent, AlreadyExists if dst is occupied, and InvalidPath if dst is
	// a descendant of src.
	Move(ctx context.Context, src, dst string) error

	// FileExists reports whether a file row occupies path.
	FileExists(ctx context.Context, path string) (bool, error)

	// DirExists reports whether a directory row occupies path.
	DirExists(ctx context.Context, path string) (bool, error)

	// Purge removes every row except the root directory.
	Purge(ctx context.Context) error

	// Healthcheck verifies the underlying substrate is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
