package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
)

// mapPgError translates pgx and PostgreSQL errors into the store's typed
// error vocabulary. Clean-path errors (already typed) pass through unchanged.
func mapPgError(err error, op, path string) error {
	if err == nil {
		return nil
	}

	var storeErr *cerr.Error
	if errors.As(err, &storeErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return cerr.NewNotFound(path, "entry")
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return cerr.NewUnavailable(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			// serialization failure or deadlock, safe to retry
			return cerr.NewConflict(path, op)
		case pgErr.Code == "23505":
			return cerr.NewAlreadyExists(path)
		case pgErr.Code == "23503":
			return cerr.NewParentNotFound(path)
		case pgErr.Code == "57014":
			// statement timeout
			return cerr.NewUnavailable(op, err)
		case strings.HasPrefix(pgErr.Code, "08"):
			// connection exceptions
			return cerr.NewUnavailable(op, err)
		}
	}

	return cerr.NewUnavailable(op, err)
}
