package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	cpath "github.com/gmarchetti/inkwell/pkg/contents/path"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// CreateFile inserts a new file row with revision 1.
func (s *Store) CreateFile(ctx context.Context, path string, content []byte, ctype tree.ContentType) (*tree.File, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}
	if path == cpath.Root {
		return nil, cerr.NewInvalidPath(path, "cannot create a file at the root")
	}
	if !ctype.Valid() {
		return nil, cerr.NewInvalidArgument("unknown content type " + string(ctype))
	}
	if content == nil {
		content = []byte{}
	}

	var file *tree.File
	err = s.withTx(ctx, "create_file", path, func(tx pgx.Tx) error {
		if err := checkTargetFree(ctx, tx, path); err != nil {
			return err
		}

		parent := cpath.Parent(path)
		ok, err := dirExistsTx(ctx, tx, parent)
		if err != nil {
			return err
		}
		if !ok {
			return cerr.NewParentNotFound(path)
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO files (path, parent_path, content, content_type, size)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING path, parent_path, content_type, size, revision, created_at, modified_at`,
			path, parent, content, string(ctype), int64(len(content)))

		f, err := scanFile(row)
		if err != nil {
			return err
		}
		f.Content = content
		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("file created", "path", path, "type", ctype, "size", file.Size)
	return file, nil
}

// GetFile fetches the file at path. Content is loaded only when withContent
// is set, so directory listings and metadata probes skip the payload.
func (s *Store) GetFile(ctx context.Context, path string, withContent bool) (*tree.File, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	var row pgx.Row
	if withContent {
		row = s.pool.QueryRow(ctx, `
			SELECT path, parent_path, content, content_type, size, revision, created_at, modified_at
			FROM files WHERE path = $1`, path)
	} else {
		row = s.pool.QueryRow(ctx, `
			SELECT path, parent_path, content_type, size, revision, created_at, modified_at
			FROM files WHERE path = $1`, path)
	}

	var file *tree.File
	if withContent {
		file = &tree.File{}
		err = row.Scan(&file.Path, &file.ParentPath, &file.Content, &file.Type,
			&file.Size, &file.Revision, &file.CreatedAt, &file.ModifiedAt)
	} else {
		file, err = scanFile(row)
	}
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, cerr.NewNotFound(path, "file")
		}
		return nil, mapPgError(err, "get_file", path)
	}
	return file, nil
}

// UpdateFile replaces the file's content in place, bumping its revision.
func (s *Store) UpdateFile(ctx context.Context, path string, content []byte) (*tree.File, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = []byte{}
	}

	var file *tree.File
	err = s.withTx(ctx, "update_file", path, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE files
			SET content = $2, size = $3, revision = revision + 1, modified_at = now()
			WHERE path = $1
			RETURNING path, parent_path, content_type, size, revision, created_at, modified_at`,
			path, content, int64(len(content)))

		f, err := scanFile(row)
		if err != nil {
			if err == pgx.ErrNoRows {
				return cerr.NewNotFound(path, "file")
			}
			return err
		}
		f.Content = content
		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("file updated", "path", path, "size", file.Size, "revision", file.Revision)
	return file, nil
}

// DeleteFile removes the file row. Checkpoint rows cascade with it.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}

	err = s.withTx(ctx, "delete_file", path, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM files WHERE path = $1`, path)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return cerr.NewNotFound(path, "file")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("file deleted", "path", path)
	return nil
}

// FileExists reports whether a file row occupies path.
func (s *Store) FileExists(ctx context.Context, path string) (bool, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM files WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, mapPgError(err, "file_exists", path)
	}
	return exists, nil
}

// scanFile scans a content-less file row in the column order
// path, parent_path, content_type, size, revision, created_at, modified_at.
func scanFile(row pgx.Row) (*tree.File, error) {
	f := &tree.File{}
	err := row.Scan(&f.Path, &f.ParentPath, &f.Type, &f.Size, &f.Revision,
		&f.CreatedAt, &f.ModifiedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// checkTargetFree fails with AlreadyExists if any row, file or directory,
// occupies path.
func checkTargetFree(ctx context.Context, tx pgx.Tx, path string) error {
	var occupied bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM files WHERE path = $1)
		    OR EXISTS (SELECT 1 FROM directories WHERE path = $1)`, path).Scan(&occupied)
	if err != nil {
		return err
	}
	if occupied {
		return cerr.NewAlreadyExists(path)
	}
	return nil
}

// dirExistsTx reports directory existence inside an open transaction.
func dirExistsTx(ctx context.Context, tx pgx.Tx, path string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM directories WHERE path = $1)`, path).Scan(&exists)
	return exists, err
}
