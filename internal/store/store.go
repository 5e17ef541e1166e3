package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when no record exists under the key.
var ErrNotFound = errors.New("record not found")

// Store is the single durable medium: every record collection and the
// pending-action queue live in one sqlite file, so a record write and its
// enqueue cannot land on different media.
type Store struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// collectionTables maps collection names to their DDL. Migration is
// additive: a new collection gets a new CREATE TABLE IF NOT EXISTS entry
// here and existing tables are never rewritten.
var collectionTables = []string{
	`CREATE TABLE IF NOT EXISTS punches (
        key TEXT PRIMARY KEY,
        data TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS leaves (
        key TEXT PRIMARY KEY,
        data TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS moods (
        key TEXT PRIMARY KEY,
        data TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS tickets (
        key TEXT PRIMARY KEY,
        data TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS attendance (
        key TEXT PRIMARY KEY,
        data TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS payslips (
        key TEXT PRIMARY KEY,
        data TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS pending_actions (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT UNIQUE NOT NULL,
        kind TEXT NOT NULL,
        payload TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        attempts INTEGER NOT NULL DEFAULT 0
    )`,
	`CREATE INDEX IF NOT EXISTS idx_pending_actions_kind ON pending_actions(kind)`,
}

func Open(path string, logger *zerolog.Logger) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	logger.Info().Str("path", path).Msg("Local store initialized")
	return &Store{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	for _, query := range collectionTables {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (s *Store) put(ctx context.Context, table, key string, data []byte) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, data) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET data = excluded.data`, table)
	if _, err := s.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("failed to put into %s: %w", table, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, table, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE key = ?`, table)
	var data string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from %s: %w", table, err)
	}
	return []byte(data), nil
}

func (s *Store) all(ctx context.Context, table string) ([][]byte, error) {
	query := fmt.Sprintf(`SELECT data FROM %s`, table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, []byte(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", table, err)
	}
	return out, nil
}

func (s *Store) delete(ctx context.Context, table, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, table)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

func (s *Store) clear(ctx context.Context, table string) error {
	query := fmt.Sprintf(`DELETE FROM %s`, table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}

func (s *Store) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
