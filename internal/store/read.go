package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/activeset/internal/ir"
	"github.com/roach88/activeset/internal/queryir"
	"github.com/roach88/activeset/internal/querysql"
)

// ReadEvent retrieves a single event by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadEvent(ctx context.Context, id string) (ir.EventRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, engine_id, seq, type, time_unix_nano, values_json, indexes_json, evicted_values_json, evicted_indexes_json
		FROM events
		WHERE id = ?
	`, id)

	return scanEvent(row)
}

// ReadEvents returns every event of one engine, ordered by seq ASC, id ASC.
//
// Returns an empty slice (not nil) if the engine has no events.
func (s *Store) ReadEvents(ctx context.Context, engineID string) ([]ir.EventRecord, error) {
	return s.QueryEvents(ctx, queryir.Filter{EngineID: engineID})
}

// QueryEvents returns the events matching f, ordered by seq ASC, id ASC.
// The filter is compiled to parameterized SQL by querysql.
func (s *Store) QueryEvents(ctx context.Context, f queryir.Filter) ([]ir.EventRecord, error) {
	query, args, err := querysql.CompileFilter(f)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.EventRecord{}
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvent reads one row in querysql's default column order.
func scanEvent(row scanner) (ir.EventRecord, error) {
	var rec ir.EventRecord
	var valuesJSON, indexesJSON, evictedValues, evictedIdxJSON string

	err := row.Scan(
		&rec.ID,
		&rec.EngineID,
		&rec.Seq,
		&rec.Type,
		&rec.TimeUnixNano,
		&valuesJSON,
		&indexesJSON,
		&evictedValues,
		&evictedIdxJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.EventRecord{}, err
		}
		return ir.EventRecord{}, fmt.Errorf("scan event: %w", err)
	}

	if rec.Values, err = unmarshalValues(valuesJSON); err != nil {
		return ir.EventRecord{}, fmt.Errorf("event %s: %w", rec.ID, err)
	}
	if rec.Indexes, err = unmarshalIndexes(indexesJSON); err != nil {
		return ir.EventRecord{}, fmt.Errorf("event %s: %w", rec.ID, err)
	}
	// Evicted fields are omitted from JSON when empty, so keep them nil.
	if evictedValues != "[]" {
		if rec.EvictedValues, err = unmarshalValues(evictedValues); err != nil {
			return ir.EventRecord{}, fmt.Errorf("event %s: %w", rec.ID, err)
		}
	}
	if evictedIdxJSON != "[]" {
		if rec.EvictedIndexes, err = unmarshalIndexes(evictedIdxJSON); err != nil {
			return ir.EventRecord{}, fmt.Errorf("event %s: %w", rec.ID, err)
		}
	}

	return rec, nil
}
