// Package storage provides the persistent credential store
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("sqlite3", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &DB{db}, nil
}

// Migrate runs database migrations and removes entries left behind by
// superseded store implementations (redux-persist era keys).
func (db *DB) Migrate() error {
	if _, err := db.Exec(createCredentialsTable); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if _, err := db.Exec(
		"DELETE FROM credentials WHERE key IN (?, ?)",
		legacyKeyPersistRoot, legacyKeyPersistAuth,
	); err != nil {
		return fmt.Errorf("legacy key cleanup failed: %w", err)
	}

	return nil
}

const createCredentialsTable = `
CREATE TABLE IF NOT EXISTS credentials (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Keys written by store implementations this one replaces. They are
// deleted on open, never read.
const (
	legacyKeyPersistRoot = "persist:root"
	legacyKeyPersistAuth = "persist:auth"
)
