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

// ErrUnknownEngine is returned when no events are recorded for an engine ID.
var ErrUnknownEngine = errors.New("unknown engine")

// ListEngines returns the distinct engine IDs in the log, in binary order.
// Returns an empty slice (not nil) for an empty log.
func (s *Store) ListEngines(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT engine_id
		FROM engine_stats
		ORDER BY engine_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list engines: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan engine id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engines: %w", err)
	}
	return ids, nil
}

// LastSeq returns the highest seq recorded for an engine, or 0 when the
// engine has no events. Replay continues numbering after this value.
func (s *Store) LastSeq(ctx context.Context, engineID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT last_seq
		FROM engine_stats
		WHERE engine_id = ?
	`, engineID).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("last seq for %s: %w", engineID, err)
	}
	return seq, nil
}

// EngineSummary aggregates the events of one engine: total count, seq range
// and a count per event type. Returns ErrUnknownEngine (wrapped) when the
// engine has no events.
func (s *Store) EngineSummary(ctx context.Context, engineID string) (ir.EngineSummary, error) {
	summary := ir.EngineSummary{
		EngineID:     engineID,
		CountsByType: map[string]int64{},
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT events, first_seq, last_seq
		FROM engine_stats
		WHERE engine_id = ?
	`, engineID).Scan(&summary.Events, &summary.FirstSeq, &summary.LastSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.EngineSummary{}, fmt.Errorf("summarize %s: %w", engineID, ErrUnknownEngine)
	}
	if err != nil {
		return ir.EngineSummary{}, fmt.Errorf("summarize %s: %w", engineID, err)
	}

	query, args, err := querysql.NewSQLCompiler().Compile(queryir.Filter{EngineID: engineID}.CountQuery())
	if err != nil {
		return ir.EngineSummary{}, fmt.Errorf("summarize %s: %w", engineID, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ir.EngineSummary{}, fmt.Errorf("summarize %s: %w", engineID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typ   string
			count int64
		)
		if err := rows.Scan(&typ, &count); err != nil {
			return ir.EngineSummary{}, fmt.Errorf("scan type count: %w", err)
		}
		summary.CountsByType[typ] = count
	}
	if err := rows.Err(); err != nil {
		return ir.EngineSummary{}, fmt.Errorf("iterate type counts: %w", err)
	}

	return summary, nil
}
