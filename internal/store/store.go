package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaSQL is the version 0 layout. Everything added later lives in
// migrations so old and new databases converge on the same shape.
//
//go:embed schema.sql
var schemaSQL string

// migration upgrades the schema to version.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations run in order; each one bumps user_version in the same
// transaction as its statements.
var migrations = []migration{
	{
		version: 1,
		name:    "index events by type",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)`,
		},
	},
	{
		version: 2,
		name:    "per-engine stats view",
		stmts: []string{
			`CREATE VIEW IF NOT EXISTS engine_stats AS
				SELECT engine_id,
				       COUNT(*) AS events,
				       MIN(seq) AS first_seq,
				       MAX(seq) AS last_seq
				FROM events
				GROUP BY engine_id`,
		},
	},
}

// currentSchemaVersion is the version Open leaves every database at.
var currentSchemaVersion = migrations[len(migrations)-1].version

// pragmas are applied on every Open. The pool is capped at one connection,
// so connection-scoped settings stick.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// Store is an append-only event log backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the event log at path and brings its schema up to
// date. WAL mode lets trace and replay read while a run is recording.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to event log: %w", err)
	}

	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database. Safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (m migration) apply(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}
