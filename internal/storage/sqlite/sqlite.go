// Package sqlite provides the SQLite-based store implementation.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Sentinel errors returned by store operations.
var (
	ErrNotFound      = errors.New("not found")
	ErrStorageClosed = errors.New("storage is closed")
)

// Store implements the storage.Store interface using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// New creates a new SQLite store at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db}

	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return store, nil
}

// createSchema creates the database schema.
func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id                TEXT PRIMARY KEY,
		session_id        TEXT NOT NULL,
		user_id           TEXT,
		provider          TEXT NOT NULL,
		model             TEXT NOT NULL,
		prompt_tokens     INTEGER DEFAULT 0,
		completion_tokens INTEGER DEFAULT 0,
		total_tokens      INTEGER DEFAULT 0,
		input_cost        REAL DEFAULT 0,
		output_cost       REAL DEFAULT 0,
		total_cost        REAL DEFAULT 0,
		currency          TEXT DEFAULT 'USD',
		operation         TEXT NOT NULL,
		cached            INTEGER DEFAULT 0,
		estimated         INTEGER DEFAULT 0,
		failed            INTEGER DEFAULT 0,
		date              TEXT NOT NULL,
		created_at        DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_quotas (
		user_id              TEXT PRIMARY KEY,
		daily_token_limit    INTEGER NOT NULL,
		daily_cost_limit     REAL NOT NULL,
		current_daily_tokens INTEGER DEFAULT 0,
		current_daily_cost   REAL DEFAULT 0,
		last_reset_date      TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS budget_alerts (
		date          TEXT PRIMARY KEY,
		threshold_pct INTEGER NOT NULL,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS admin_settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_date ON usage_records(date);
	CREATE INDEX IF NOT EXISTS idx_records_user ON usage_records(user_id);
	CREATE INDEX IF NOT EXISTS idx_records_created ON usage_records(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
