// Package postgres implements the checkpoint store on the same PostgreSQL
// schema as the tree store. Rename and file deletion need no work here; the
// checkpoint rows follow files through cascading foreign keys.
package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gmarchetti/inkwell/internal/logger"
	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	cpath "github.com/gmarchetti/inkwell/pkg/contents/path"
	"github.com/gmarchetti/inkwell/pkg/store/checkpoints"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// DefaultMaxPerFile is the retention limit applied when none is configured.
const DefaultMaxPerFile = 5

// Store is the PostgreSQL-backed checkpoint store. It shares the tree
// store's connection pool so that restores and evictions commit in the same
// database as the live rows they touch.
type Store struct {
	pool       *pgxpool.Pool
	maxPerFile int
	logger     *slog.Logger
}

// New creates a checkpoint store over pool, keeping at most maxPerFile
// checkpoints per file. Zero or negative means DefaultMaxPerFile.
func New(pool *pgxpool.Pool, maxPerFile int) *Store {
	if maxPerFile <= 0 {
		maxPerFile = DefaultMaxPerFile
	}
	return &Store{
		pool:       pool,
		maxPerFile: maxPerFile,
		logger:     logger.With("component", "checkpoint-store", "backend", "postgres"),
	}
}

func (s *Store) withTx(ctx context.Context, op, path string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapCheckpointError(err, op, path)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return mapCheckpointError(err, op, path)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapCheckpointError(err, op, path)
	}
	return nil
}

// Create snapshots the file's current content. The new ID, the snapshot
// insert, and oldest-first eviction all commit together.
func (s *Store) Create(ctx context.Context, path string) (*checkpoints.Checkpoint, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	var cp *checkpoints.Checkpoint
	err = s.withTx(ctx, "create_checkpoint", path, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO checkpoints (file_path, checkpoint_id, content, content_type, size)
			SELECT f.path,
			       COALESCE((SELECT MAX(checkpoint_id) FROM checkpoints WHERE file_path = f.path), 0) + 1,
			       f.content, f.content_type, f.size
			FROM files f WHERE f.path = $1
			RETURNING file_path, checkpoint_id, content_type, size, created_at`, path)

		c := &checkpoints.Checkpoint{}
		err := row.Scan(&c.FilePath, &c.ID, &c.Type, &c.Size, &c.CreatedAt)
		if err != nil {
			if err == pgx.ErrNoRows {
				return cerr.NewNotFound(path, "file")
			}
			return err
		}
		cp = c

		_, err = tx.Exec(ctx, `
			DELETE FROM checkpoints
			WHERE file_path = $1 AND checkpoint_id <= (
				SELECT MAX(checkpoint_id) FROM checkpoints WHERE file_path = $1
			) - $2`, path, s.maxPerFile)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("checkpoint created", "path", path, "id", cp.ID)
	return cp, nil
}

// List returns the file's checkpoints, newest first.
func (s *Store) List(ctx context.Context, path string) ([]checkpoints.Checkpoint, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	var out []checkpoints.Checkpoint
	err = s.withTx(ctx, "list_checkpoints", path, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM files WHERE path = $1)`, path).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return cerr.NewNotFound(path, "file")
		}

		rows, err := tx.Query(ctx, `
			SELECT file_path, checkpoint_id, content_type, size, created_at
			FROM checkpoints WHERE file_path = $1
			ORDER BY checkpoint_id DESC`, path)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = []checkpoints.Checkpoint{}
		for rows.Next() {
			var c checkpoints.Checkpoint
			if err := rows.Scan(&c.FilePath, &c.ID, &c.Type, &c.Size, &c.CreatedAt); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Restore overwrites the live file with the checkpoint's snapshot in one
// transaction. The checkpoint row survives the restore.
func (s *Store) Restore(ctx context.Context, path string, id int64) (*tree.File, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	var file *tree.File
	err = s.withTx(ctx, "restore_checkpoint", path, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE files f
			SET content = c.content, size = c.size,
			    revision = f.revision + 1, modified_at = now()
			FROM checkpoints c
			WHERE f.path = $1 AND c.file_path = $1 AND c.checkpoint_id = $2
			RETURNING f.path, f.parent_path, f.content, f.content_type,
			          f.size, f.revision, f.created_at, f.modified_at`, path, id)

		f := &tree.File{}
		err := row.Scan(&f.Path, &f.ParentPath, &f.Content, &f.Type,
			&f.Size, &f.Revision, &f.CreatedAt, &f.ModifiedAt)
		if err != nil {
			if err == pgx.ErrNoRows {
				return checkpointNotFound(ctx, tx, path, id)
			}
			return err
		}
		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("checkpoint restored", "path", path, "id", id, "revision", file.Revision)
	return file, nil
}

// Delete removes a single checkpoint row.
func (s *Store) Delete(ctx context.Context, path string, id int64) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}

	return s.withTx(ctx, "delete_checkpoint", path, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM checkpoints WHERE file_path = $1 AND checkpoint_id = $2`, path, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return checkpointNotFound(ctx, tx, path, id)
		}
		return nil
	})
}

// DeleteAll removes every checkpoint of the file at path.
func (s *Store) DeleteAll(ctx context.Context, path string) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM checkpoints WHERE file_path = $1`, path)
	if err != nil {
		return mapCheckpointError(err, "delete_checkpoints", path)
	}
	return nil
}

// Rename is a no-op here; checkpoint rows follow files via ON UPDATE CASCADE
// on their file_path foreign key.
func (s *Store) Rename(ctx context.Context, oldPath, newPath string) error {
	return nil
}

// checkpointNotFound distinguishes a missing file from a missing checkpoint
// so the caller gets the more precise error.
func checkpointNotFound(ctx context.Context, tx pgx.Tx, path string, id int64) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM files WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return cerr.NewNotFound(path, "file")
	}
	return cerr.NewCheckpointNotFound(path, formatID(id))
}
