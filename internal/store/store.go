// Package store persists the engine's documents in SQLite: users,
// consumptions, country metric snapshots, label structures, and yearly
// consumption summaries. Nested documents are stored as JSON columns;
// fields used for lookups are mirrored into real columns.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"

	"github.com/oklog/ulid/v2"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// Store wraps the SQLite document store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// The read-modify-write cycles of the aggregator are not
	// transactional; a single connection keeps in-memory databases
	// coherent and is enough for the engine's write volume.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// migrations returns the schema statements. SQLite executes one
// statement at a time.
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                       TEXT PRIMARY KEY,
			country_id               TEXT NOT NULL,
			consumption_version      TEXT NOT NULL DEFAULT '',
			consumption_last_recalc  TEXT,
			summary_version          TEXT NOT NULL DEFAULT '',
			summary_last_recalc      TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS consumptions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			category   TEXT NOT NULL,
			doc        TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_consumptions_user ON consumptions(user_id)`,

		`CREATE TABLE IF NOT EXISTS country_metrics (
			id         TEXT PRIMARY KEY,
			country_id TEXT NOT NULL,
			valid_from TEXT NOT NULL,
			doc        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_country ON country_metrics(country_id, valid_from)`,

		`CREATE TABLE IF NOT EXISTS label_structures (
			country_id TEXT PRIMARY KEY,
			doc        TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS summaries (
			user_id TEXT NOT NULL,
			year    INTEGER NOT NULL,
			doc     TEXT NOT NULL,
			PRIMARY KEY (user_id, year)
		)`,
	}
}

func (s *Store) migrate() error {
	for _, stmt := range migrations() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// NewID returns a fresh ULID string for a document id.
func NewID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

func (s *Store) execContext(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
