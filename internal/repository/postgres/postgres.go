// Package postgres implements the repository interfaces on PostgreSQL using a pgx
// connection pool. It mirrors the sqlite package query for query; only the
// placeholder syntax and error translation differ.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akallepalli/assignment-service/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DB wraps a pgxpool.Pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL (a postgres:// DSN), pings it and runs migrations.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

// Close releases every pooled connection.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

// Ping acquires a connection and round-trips to the server.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id              TEXT PRIMARY KEY,
				first_name      TEXT NOT NULL,
				last_name       TEXT NOT NULL,
				email           TEXT NOT NULL UNIQUE,
				password        TEXT NOT NULL,
				account_created TIMESTAMPTZ NOT NULL DEFAULT now(),
				account_updated TIMESTAMPTZ NOT NULL DEFAULT now()
			)`},
		{"assignments", `
			CREATE TABLE IF NOT EXISTS assignments (
				id                 TEXT PRIMARY KEY,
				name               TEXT NOT NULL,
				points             INTEGER NOT NULL,
				num_of_attempts    INTEGER NOT NULL,
				deadline           TIMESTAMPTZ NOT NULL,
				assignment_created TIMESTAMPTZ NOT NULL DEFAULT now(),
				assignment_updated TIMESTAMPTZ NOT NULL DEFAULT now()
			)`},
		{"assignment_links", `
			CREATE TABLE IF NOT EXISTS assignment_links (
				id            TEXT PRIMARY KEY,
				user_id       TEXT NOT NULL,
				assignment_id TEXT NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
			)`},
		{"assignment_links index", `
			CREATE INDEX IF NOT EXISTS idx_assignment_links_assignment ON assignment_links(assignment_id)`},
	}

	for _, s := range statements {
		if _, err := db.pool.Exec(ctx, s.sql); err != nil {
			return fmt.Errorf("creating %s: %w", s.name, err)
		}
	}
	return nil
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
func (db *DB) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: committing transaction: %w", err)
	}
	return nil
}

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func requireRow(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
