package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cursors (
	cursor_key TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	expires_at TIMESTAMP NOT NULL
)`

// SQLiteStore keeps cursors in a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

type entryRow struct {
	Key       string    `db:"cursor_key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// cursors table exists. Use ":memory:" for a throwaway store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("cursor database path cannot be empty")
	}
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("creating cursor database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cursors table: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, ignoring expired rows.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}

	var row entryRow
	err := s.db.GetContext(ctx, &row,
		"SELECT cursor_key, value, updated_at, expires_at FROM cursors WHERE cursor_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cursor %q: %w", key, err)
	}

	entry := Entry(row)
	if entry.ExpiredAt(s.now()) {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM cursors WHERE cursor_key = ?", key); err != nil {
			return "", false, fmt.Errorf("deleting expired cursor %q: %w", key, err)
		}
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Put upserts value under key with a fresh expiry.
func (s *SQLiteStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := validate(key, ttl); err != nil {
		return err
	}

	e := newEntry(key, value, s.now(), ttl)
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO cursors (cursor_key, value, updated_at, expires_at)
		VALUES (:cursor_key, :value, :updated_at, :expires_at)`, entryRow(e))
	if err != nil {
		return fmt.Errorf("writing cursor %q: %w", key, err)
	}
	return nil
}
