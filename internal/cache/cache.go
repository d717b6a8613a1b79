// Package cache is a sqlite-backed store of raw API response bodies keyed by
// URL. Online resolutions write through it; offline resolutions are answered
// from it.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS responses (
	url        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at TIMESTAMP NOT NULL
)`

// Store is a persistent response cache. It satisfies the query engine's
// Cache interface.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached body for a URL, if any.
func (s *Store) Get(url string) ([]byte, bool) {
	var body []byte
	err := s.db.QueryRow("SELECT body FROM responses WHERE url = ?", url).Scan(&body)
	if err != nil {
		return nil, false
	}
	return body, true
}

// Put stores (or replaces) the body for a URL.
func (s *Store) Put(url string, body []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO responses (url, body, fetched_at) VALUES (?, ?, ?) ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at",
		url, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache response for %s: %w", url, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
