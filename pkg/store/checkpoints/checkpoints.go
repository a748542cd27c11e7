// Package checkpoints defines the checkpoint store: immutable point-in-time
// snapshots of file content, keyed by file path and a per-file numeric ID.
//
// Checkpoints follow their file across renames and disappear with it on
// deletion. Restoring a checkpoint overwrites the live file content; the
// checkpoint itself is never consumed by a restore.
package checkpoints

import (
	"context"
	"time"

	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// Checkpoint is snapshot metadata. Content is only materialized during a
// restore, never returned to callers.
type Checkpoint struct {
	ID        int64
	FilePath  string
	Type      tree.ContentType
	Size      int64
	CreatedAt time.Time
}

// Store persists and restores file snapshots. Implementations pair with a
// tree store over the same substrate so that restore is atomic with the file
// update it performs.
type Store interface {
	// Create snapshots the current content of the file at path. When the
	// per-file retention limit is exceeded, the oldest checkpoints are
	// evicted in the same transaction. Fails with NotFound if no file
	// occupies path.
	Create(ctx context.Context, path string) (*Checkpoint, error)

	// List returns the file's checkpoints ordered newest first. A file with
	// no checkpoints yields an empty slice; a missing file fails with
	// NotFound.
	List(ctx context.Context, path string) ([]Checkpoint, error)

	// Restore overwrites the file's live content with the checkpoint's
	// snapshot, bumping the file revision. Fails with CheckpointNotFound.
	Restore(ctx context.Context, path string, id int64) (*tree.File, error)

	// Delete removes a single checkpoint. Fails with CheckpointNotFound.
	Delete(ctx context.Context, path string, id int64) error

	// DeleteAll removes every checkpoint of the file at path. Removing zero
	// is not an error.
	DeleteAll(ctx context.Context, path string) error

	// Rename re-keys the file's checkpoints from oldPath to newPath.
	Rename(ctx context.Context, oldPath, newPath string) error
}
