// Package prefs persists the credential and provider choice in SQLite.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Keys stored by the dashboard.
const (
	KeyAPIKey   = "openai_api_key"
	KeyProvider = "api_service"
)

// Store is a small key-value table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database and applies migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps :memory: databases shared across calls
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value for key; ok is false when it was never set.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Remove deletes the given keys in one transaction.
func (s *Store) Remove(ctx context.Context, keys ...string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, key := range keys {
		if _, err = tx.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Credentials is the typed view of the stored keys.
type Credentials struct {
	APIKey   string
	Provider string
}

// Load reads the stored credential and provider. Missing values are empty.
func (s *Store) Load(ctx context.Context) (Credentials, error) {
	key, _, err := s.Get(ctx, KeyAPIKey)
	if err != nil {
		return Credentials{}, err
	}
	provider, _, err := s.Get(ctx, KeyProvider)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{APIKey: key, Provider: provider}, nil
}

// SaveAPIKey stores a trimmed credential; an empty key removes it.
func (s *Store) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.Remove(ctx, KeyAPIKey)
	}
	return s.Set(ctx, KeyAPIKey, key)
}

// SaveProvider stores the provider ID.
func (s *Store) SaveProvider(ctx context.Context, provider string) error {
	return s.Set(ctx, KeyProvider, strings.TrimSpace(provider))
}

// Forget removes both the credential and provider.
func (s *Store) Forget(ctx context.Context) error {
	return s.Remove(ctx, KeyAPIKey, KeyProvider)
}
