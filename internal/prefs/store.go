// Package prefs persists user preferences (tuning parameters, filter
// settings, the watchlist fallback) in a local SQLite database. The store
// is strictly best-effort and non-authoritative: every failure is swallowed
// and surfaced as an empty/failed status so callers fall back to in-memory
// defaults. Keys carry a version suffix so an incompatible future shape can
// move to a new key without a migration step.
package prefs

import (
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Versioned preference keys.
const (
	KeyTuning     = "tuning:v1"
	KeyRecFilters = "recFilters:v1"
	KeyWatchlist  = "watchlist:v1"
)

// ReadStatus is the outcome of a best-effort read.
type ReadStatus int

const (
	ReadOK     ReadStatus = iota // value present
	ReadEmpty                    // key absent
	ReadFailed                   // store unavailable or corrupt
)

// Store is a best-effort key/value blob store. A Store whose backing
// database failed to open still works: every read reports ReadFailed and
// every write reports false.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// Open opens (or creates) the preference database at path. Open never
// returns an error: on failure it logs once and hands back a store that
// degrades to in-memory defaults.
func Open(path string, log *slog.Logger) *Store {
	s := &Store{log: log}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Warn("preference store unavailable", "path", path, "error", err)
		return s
	}
	if _, err := db.Exec(schema); err != nil {
		log.Warn("preference store schema init failed", "path", path, "error", err)
		db.Close()
		return s
	}
	s.db = db
	return s
}

// Close closes the backing database if it was opened.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// TryRead reads the raw blob for key.
func (s *Store) TryRead(key string) ([]byte, ReadStatus) {
	if s.db == nil {
		return nil, ReadFailed
	}
	var raw []byte
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		return nil, ReadEmpty
	case err != nil:
		s.log.Debug("preference read failed", "key", key, "error", err)
		return nil, ReadFailed
	}
	return raw, ReadOK
}

// TryWrite upserts the raw blob for key, reporting success. Last write wins
// across processes; no locking is attempted.
func (s *Store) TryWrite(key string, raw []byte) bool {
	if s.db == nil {
		return false
	}
	_, err := s.db.Exec(
		`INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, raw, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		s.log.Debug("preference write failed", "key", key, "error", err)
		return false
	}
	return true
}

// TryDelete removes key, reporting success.
func (s *Store) TryDelete(key string) bool {
	if s.db == nil {
		return false
	}
	if _, err := s.db.Exec(`DELETE FROM prefs WHERE key = ?`, key); err != nil {
		s.log.Debug("preference delete failed", "key", key, "error", err)
		return false
	}
	return true
}
