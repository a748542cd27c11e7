package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	cpath "github.com/gmarchetti/inkwell/pkg/contents/path"
)

// Move renames the row at src to dst. Directory moves rewrite every
// descendant path in the same transaction with single prefix-rewrite
// statements, so a subtree of any depth moves in O(rows) without walking.
func (s *Store) Move(ctx context.Context, src, dst string) error {
	src, err := cpath.Normalize(src)
	if err != nil {
		return err
	}
	dst, err = cpath.Normalize(dst)
	if err != nil {
		return err
	}

	if src == cpath.Root {
		return cerr.NewInvalidPath(src, "cannot move the root directory")
	}
	if dst == cpath.Root {
		return cerr.NewInvalidPath(dst, "cannot move onto the root directory")
	}
	if src == dst {
		return nil
	}
	if cpath.IsAncestor(src, dst) {
		return cerr.NewInvalidPath(dst, "destination is inside the moved directory")
	}

	err = s.withTx(ctx, "move", src, func(tx pgx.Tx) error {
		if err := checkTargetFree(ctx, tx, dst); err != nil {
			return err
		}

		dstParent := cpath.Parent(dst)
		ok, err := dirExistsTx(ctx, tx, dstParent)
		if err != nil {
			return err
		}
		if !ok {
			return cerr.NewParentNotFound(dst)
		}

		// File rename first: the common case, one row.
		tag, err := tx.Exec(ctx, `
			UPDATE files
			SET path = $2, parent_path = $3, modified_at = now()
			WHERE path = $1`, src, dst, dstParent)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		// Directory rename. Rewrite the directory row and every descendant
		// directory by prefix substitution; child parent_path values follow
		// the same substitution, and the moved root gets the new parent.
		// The self-referencing FK is deferred until commit, so intermediate
		// states need not be consistent.
		tag, err = tx.Exec(ctx, `
			UPDATE directories
			SET path = $2 || substr(path, length($1::text)+1),
			    parent_path = CASE
			        WHEN path = $1 THEN $3::text
			        ELSE $2 || substr(parent_path, length($1::text)+1)
			    END,
			    modified_at = now()
			WHERE path = $1 OR left(path, length($1::text)+1) = $1 || '/'`,
			src, dst, dstParent)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return cerr.NewNotFound(src, "entry")
		}

		// Descendant files: parent_path is corrected by ON UPDATE CASCADE
		// from the directories rewrite above, only path needs the prefix
		// substitution. Checkpoint file_path values cascade from here.
		_, err = tx.Exec(ctx, `
			UPDATE files
			SET path = $2 || substr(path, length($1::text)+1)
			WHERE left(path, length($1::text)+1) = $1 || '/'`, src, dst)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Debug("moved", "from", src, "to", dst)
	return nil
}
