package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/activeset/internal/ir"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteEvent inserts an event record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., NOT NULL) will still return errors.
//
// A record with an empty ID is given its content-addressed ID (ir.EventID)
// before it is written.
func (s *Store) WriteEvent(ctx context.Context, rec ir.EventRecord) error {
	if err := writeEvent(ctx, s.db, rec); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteEvents inserts records in a single transaction. Either every record
// is written (or already present) or none are.
func (s *Store) WriteEvents(ctx context.Context, recs []ir.EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin: %w", err)
	}
	for i, rec := range recs {
		if err := writeEvent(ctx, tx, rec); err != nil {
			tx.Rollback()
			return fmt.Errorf("write events: record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}

func writeEvent(ctx context.Context, db execer, rec ir.EventRecord) error {
	if rec.EngineID == "" {
		return fmt.Errorf("engine id is empty")
	}
	if rec.Type == "" {
		return fmt.Errorf("event type is empty")
	}

	if rec.ID == "" {
		id, err := ir.EventID(rec)
		if err != nil {
			return err
		}
		rec.ID = id
	}

	valuesJSON, err := marshalValues(rec.Values)
	if err != nil {
		return err
	}
	indexesJSON, err := marshalIndexes(rec.Indexes)
	if err != nil {
		return err
	}
	evictedValuesJSON, err := marshalValues(rec.EvictedValues)
	if err != nil {
		return err
	}
	evictedIndexesJSON, err := marshalIndexes(rec.EvictedIndexes)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO events
		(id, engine_id, seq, type, time_unix_nano, values_json, indexes_json, evicted_values_json, evicted_indexes_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.EngineID,
		rec.Seq,
		rec.Type,
		rec.TimeUnixNano,
		valuesJSON,
		indexesJSON,
		evictedValuesJSON,
		evictedIndexesJSON,
	)
	return err
}
