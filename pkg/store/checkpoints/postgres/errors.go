package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// mapCheckpointError mirrors the tree store's error mapping for the shared
// schema.
func mapCheckpointError(err error, op, path string) error {
	if err == nil {
		return nil
	}

	var storeErr *cerr.Error
	if errors.As(err, &storeErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return cerr.NewNotFound(path, "file")
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return cerr.NewUnavailable(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			return cerr.NewConflict(path, op)
		case pgErr.Code == "23505":
			return cerr.NewAlreadyExists(path)
		case pgErr.Code == "23503":
			return cerr.NewNotFound(path, "file")
		case pgErr.Code == "57014":
			return cerr.NewUnavailable(op, err)
		case strings.HasPrefix(pgErr.Code, "08"):
			return cerr.NewUnavailable(op, err)
		}
	}

	return cerr.NewUnavailable(op, err)
}
