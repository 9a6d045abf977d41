// Package sqlite implements the repository interfaces on top of SQLite.
//
// It uses modernc.org/sqlite, a pure Go translation of SQLite, so the binary builds
// without CGo. The same DB value serves users, assignments and ownership links.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	moderncsqlite "modernc.org/sqlite" // registers the "sqlite" driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/akallepalli/assignment-service/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, verifies the connection and runs migrations.
//
// dbPath examples:
//   - "data/assignments.db" → file-based database
//   - ":memory:"            → in-memory database, used by tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" gets its own empty database,
	// so the pool must never hold more than one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database still answers. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			first_name      TEXT NOT NULL,
			last_name       TEXT NOT NULL,
			email           TEXT NOT NULL UNIQUE,
			password        TEXT NOT NULL,
			account_created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			account_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS assignments (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL,
			points             INTEGER NOT NULL,
			num_of_attempts    INTEGER NOT NULL,
			deadline           DATETIME NOT NULL,
			assignment_created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			assignment_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_assignments_created ON assignments(assignment_created);
	`)
	if err != nil {
		return fmt.Errorf("creating assignments table: %w", err)
	}

	// Links carry no foreign keys: a link is a standalone ownership fact keyed by
	// "{user_id}_{assignment_id}".
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS assignment_links (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			assignment_id TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_assignment_links_assignment ON assignment_links(assignment_id);
	`)
	if err != nil {
		return fmt.Errorf("creating assignment_links table: %w", err)
	}

	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx so insert helpers can run
// inside or outside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
// fn must issue every statement through tx: the in-memory pool has one connection.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isConstraintViolation reports whether err is a constraint failure. Inserts always
// supply every NOT NULL column, so in practice this means UNIQUE or PRIMARY KEY.
// The low byte of an extended result code is the primary code.
func isConstraintViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// requireRow turns a zero RowsAffected into apperror-style not found.
func requireRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
