package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Store persists trackers and settings in a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and creates the schema.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive between calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withConn checks a connection out of the pool for exactly one unit of work
// and always hands it back. Errors other than ErrNotFound come back as
// *PersistenceError.
func (s *Store) withConn(op string, fn func(ctx context.Context, conn *sql.Conn) error) error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	defer conn.Close()

	err = fn(ctx, conn)
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// CreateSchema brings the database up to the current schema version. It is
// safe to call on every start.
func (s *Store) CreateSchema() error {
	return s.withConn("create schema", func(ctx context.Context, conn *sql.Conn) error {
		var version int
		if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
			return fmt.Errorf("read user_version: %w", err)
		}

		if version >= currentVersion {
			return nil
		}

		if version < 1 {
			if err := migrateV1(ctx, conn); err != nil {
				return err
			}
		}

		_, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
		return err
	})
}

func migrateV1(ctx context.Context, conn *sql.Conn) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS trackers (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		title            TEXT NOT NULL,
		total_hours      REAL NOT NULL CHECK (total_hours > 0),
		completed_hours  REAL NOT NULL DEFAULT 0 CHECK (completed_hours >= 0)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('notify_bell', 'on'),
		('bar_width',   '40');
	`
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate v1: %w", err)
	}
	return nil
}
