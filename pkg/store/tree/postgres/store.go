// Package postgres implements the tree store on PostgreSQL using pgx.
//
// Every operation runs inside a single serializable transaction. Conflicts
// between concurrent transactions surface as SQLSTATE 40001 and are mapped to
// the retryable Conflict error rather than retried internally.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gmarchetti/inkwell/internal/logger"
)

// Store is the PostgreSQL-backed tree store.
type Store struct {
	pool   *pgxpool.Pool
	cfg    *Config
	logger *slog.Logger
}

// New creates a tree store connected to PostgreSQL. When cfg.AutoMigrate is
// set, pending schema migrations are applied before the store is returned.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	log := logger.With("component", "tree-store", "backend", "postgres")

	pool, err := createConnectionPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := RunMigrations(ctx, cfg.ConnectionString(), log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	s := &Store{pool: pool, cfg: cfg, logger: log}

	if err := s.ensureRoot(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("PostgreSQL tree store ready", "database", cfg.Database)
	return s, nil
}

// Pool exposes the underlying connection pool for stores that share it.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// ensureRoot inserts the root directory row if migrations have not run yet in
// this database.
func (s *Store) ensureRoot(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO directories (path, parent_path)
		VALUES ('', NULL)
		ON CONFLICT (path) DO NOTHING`)
	if err != nil {
		return mapPgError(err, "ensure_root", "")
	}
	return nil
}

// withTx runs fn inside a serializable transaction, committing on success and
// rolling back on error. The returned error is already mapped to the typed
// taxonomy.
func (s *Store) withTx(ctx context.Context, op, path string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapPgError(err, op, path)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return mapPgError(err, op, path)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err, op, path)
	}
	return nil
}

// Healthcheck verifies the database is reachable.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return mapPgError(err, "healthcheck", "")
	}
	return nil
}

// Purge removes every file, directory, and checkpoint row, keeping only the
// root directory.
func (s *Store) Purge(ctx context.Context) error {
	return s.withTx(ctx, "purge", "", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM files`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM directories WHERE path <> ''`); err != nil {
			return err
		}
		return nil
	})
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.logger.Info("closing PostgreSQL tree store")
	s.pool.Close()
	return nil
}
