package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/activeset/internal/engine"
	"github.com/roach88/activeset/internal/ir"
)

// RecordFromEvent converts an engine event to its type-erased record and
// assigns its content-addressed ID. Values are converted with ir.FromAny, so
// T must be representable as an ir.Value (strings, integers, booleans, or
// float-free structs).
func RecordFromEvent[T comparable](ev engine.Event[T]) (ir.EventRecord, error) {
	values, err := ir.FromSlice(ev.Values)
	if err != nil {
		return ir.EventRecord{}, fmt.Errorf("event %d values: %w", ev.Seq, err)
	}

	rec := ir.EventRecord{
		EngineID: ev.EngineID,
		Seq:      ev.Seq,
		Type:     string(ev.Type),
		Values:   values,
		Indexes:  toInt64s(ev.Indexes),
	}
	if !ev.Time.IsZero() {
		rec.TimeUnixNano = ev.Time.UnixNano()
	}
	if len(ev.EvictedValues) > 0 {
		if rec.EvictedValues, err = ir.FromSlice(ev.EvictedValues); err != nil {
			return ir.EventRecord{}, fmt.Errorf("event %d evicted values: %w", ev.Seq, err)
		}
		rec.EvictedIndexes = toInt64s(ev.EvictedIndexes)
	}

	if rec.ID, err = ir.EventID(rec); err != nil {
		return ir.EventRecord{}, err
	}
	return rec, nil
}

func toInt64s(is []int) []int64 {
	out := make([]int64, len(is))
	for i, n := range is {
		out[i] = int64(n)
	}
	return out
}

// Recorder writes every event of the engines it is attached to into a Store.
//
// Subscribers cannot return errors, so write failures are logged and kept;
// Err reports them once recording is done.
type Recorder[T comparable] struct {
	ctx    context.Context
	store  *Store
	logger *slog.Logger

	mu      sync.Mutex
	written int
	errs    []error
}

// NewRecorder creates a recorder writing to s. A nil logger discards output.
func NewRecorder[T comparable](ctx context.Context, s *Store, logger *slog.Logger) *Recorder[T] {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder[T]{ctx: ctx, store: s, logger: logger}
}

// Attach subscribes the recorder to e and backfills the INITIALIZED event
// emitted by engine.New plus whatever e still retains in its history.
// Backfilled events that the subscription also delivers are written once,
// since writes are idempotent by ID.
//
// The returned function detaches the recorder.
func (r *Recorder[T]) Attach(e *engine.Engine[T]) (detach func()) {
	detach = e.Subscribe(r.Record)
	r.Record(e, e.Initialized())
	for _, ev := range e.History() {
		r.Record(e, ev)
	}
	return detach
}

// Record is an engine.Subscriber that writes ev.
func (r *Recorder[T]) Record(_ *engine.Engine[T], ev engine.Event[T]) {
	rec, err := RecordFromEvent(ev)
	if err == nil {
		err = r.store.WriteEvent(r.ctx, rec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.logger.Error("record event failed",
			"engine_id", ev.EngineID,
			"seq", ev.Seq,
			"type", ev.Type,
			"error", err,
		)
		r.errs = append(r.errs, err)
		return
	}
	r.written++
	r.logger.Debug("event recorded",
		"engine_id", ev.EngineID,
		"seq", ev.Seq,
		"type", ev.Type,
	)
}

// Written returns the number of successful writes, including writes that
// were no-ops because the event was already stored.
func (r *Recorder[T]) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Err returns every write failure so far, joined, or nil.
func (r *Recorder[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}
