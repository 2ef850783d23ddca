// Package sqlite implements ports.KeyValueStore on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

const (
	serviceName        = "sqlite"
	defaultBusyTimeout = 5 * time.Second
)

// Config configures the store.
type Config struct {
	// Path is the database file. Parent directories are created with mode 0700.
	Path string

	// BusyTimeout bounds how long a writer waits on a locked database.
	BusyTimeout time.Duration

	Logger *slog.Logger
}

// Store is a durable string-valued key-value store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open creates or opens the database at cfg.Path and applies migrations.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cfg.Path, busy.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Best effort: the file exists once migrations ran.
	_ = os.Chmod(cfg.Path, 0o600)

	return &Store{
		db:     db,
		path:   cfg.Path,
		logger: logger.With(slog.String("component", "sqlite.Store")),
	}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.NewNotFoundError("key", key)
	}

	if err != nil {
		return "", s.mapError("get", key, err)
	}

	return value, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return s.mapError("set", key, err)
	}

	s.logger.DebugContext(ctx, "stored key", slog.String("key", key), slog.Int("bytes", len(value)))

	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return s.mapError("delete", key, err)
	}

	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return serviceName
}

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) mapError(op, key string, err error) error {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s %q: %v", op, key, err))
	}

	return fmt.Errorf("sqlite %s %q: %w", op, key, err)
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		const schema = `
		CREATE TABLE IF NOT EXISTS kv (
		  key        TEXT PRIMARY KEY,
		  value      TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);`

		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}

		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func verifyWALMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("verifying journal mode: %w", err)
	}

	if mode != "wal" {
		return fmt.Errorf("expected WAL journal mode, got %s", mode)
	}

	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading user_version: %w", err)
	}

	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("setting user_version: %w", err)
	}

	return nil
}
