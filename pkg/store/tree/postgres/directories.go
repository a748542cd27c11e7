package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	cpath "github.com/gmarchetti/inkwell/pkg/contents/path"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// CreateDirectory inserts a new directory row under an existing parent.
func (s *Store) CreateDirectory(ctx context.Context, path string) (*tree.Directory, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}
	if path == cpath.Root {
		return nil, cerr.NewAlreadyExists(path)
	}

	var dir *tree.Directory
	err = s.withTx(ctx, "create_directory", path, func(tx pgx.Tx) error {
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
			INSERT INTO directories (path, parent_path)
			VALUES ($1, $2)
			RETURNING path, parent_path, created_at, modified_at`,
			path, parent)

		d, err := scanDirectory(row)
		if err != nil {
			return err
		}
		dir = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("directory created", "path", path)
	return dir, nil
}

// GetDirectory fetches the directory row at path.
func (s *Store) GetDirectory(ctx context.Context, path string) (*tree.Directory, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		SELECT path, parent_path, created_at, modified_at
		FROM directories WHERE path = $1`, path)

	dir, err := scanDirectory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, cerr.NewNotFound(path, "directory")
		}
		return nil, mapPgError(err, "get_directory", path)
	}
	return dir, nil
}

// ListDirectory returns the immediate children of the directory at path,
// files without content, both slices ordered by path.
func (s *Store) ListDirectory(ctx context.Context, path string) (*tree.Listing, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	listing := &tree.Listing{}
	err = s.withTx(ctx, "list_directory", path, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT path, parent_path, created_at, modified_at
			FROM directories WHERE path = $1`, path)
		dir, err := scanDirectory(row)
		if err != nil {
			if err == pgx.ErrNoRows {
				return cerr.NewNotFound(path, "directory")
			}
			return err
		}
		listing.Directory = *dir

		rows, err := tx.Query(ctx, `
			SELECT path, parent_path, created_at, modified_at
			FROM directories WHERE parent_path = $1 AND path <> ''
			ORDER BY path`, path)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDirectory(rows)
			if err != nil {
				return err
			}
			listing.Directories = append(listing.Directories, *d)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		frows, err := tx.Query(ctx, `
			SELECT path, parent_path, content_type, size, revision, created_at, modified_at
			FROM files WHERE parent_path = $1
			ORDER BY path`, path)
		if err != nil {
			return err
		}
		defer frows.Close()
		for frows.Next() {
			f, err := scanFile(frows)
			if err != nil {
				return err
			}
			listing.Files = append(listing.Files, *f)
		}
		return frows.Err()
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// DeleteDirectory removes the directory at path. With recursive set, every
// descendant directory and file goes with it in the same transaction.
func (s *Store) DeleteDirectory(ctx context.Context, path string, recursive bool) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}
	if path == cpath.Root {
		return cerr.NewInvalidPath(path, "cannot delete the root directory")
	}

	err = s.withTx(ctx, "delete_directory", path, func(tx pgx.Tx) error {
		ok, err := dirExistsTx(ctx, tx, path)
		if err != nil {
			return err
		}
		if !ok {
			return cerr.NewNotFound(path, "directory")
		}

		if !recursive {
			var populated bool
			err := tx.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM directories WHERE parent_path = $1 AND path <> '')
				    OR EXISTS (SELECT 1 FROM files WHERE parent_path = $1)`, path).Scan(&populated)
			if err != nil {
				return err
			}
			if populated {
				return cerr.NewDirectoryNotEmpty(path)
			}
		}

		// Checkpoints cascade from files. The directory parent FK is
		// deferred, so child directory rows may be deleted in one sweep.
		_, err = tx.Exec(ctx, `
			DELETE FROM files
			WHERE parent_path = $1 OR left(parent_path, length($1)+1) = $1 || '/'`, path)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			DELETE FROM directories
			WHERE path = $1 OR left(path, length($1)+1) = $1 || '/'`, path)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Debug("directory deleted", "path", path, "recursive", recursive)
	return nil
}

// DirExists reports whether a directory row occupies path.
func (s *Store) DirExists(ctx context.Context, path string) (bool, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM directories WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, mapPgError(err, "dir_exists", path)
	}
	return exists, nil
}

// scanDirectory scans a directory row in the column order
// path, parent_path, created_at, modified_at. The root's NULL parent scans
// as the empty string.
func scanDirectory(row pgx.Row) (*tree.Directory, error) {
	d := &tree.Directory{}
	var parent *string
	err := row.Scan(&d.Path, &parent, &d.CreatedAt, &d.ModifiedAt)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		d.ParentPath = *parent
	}
	return d, nil
}
