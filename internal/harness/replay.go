package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/activeset/internal/engine"
	"github.com/roach88/activeset/internal/ir"
	"github.com/roach88/activeset/internal/store"
	"github.com/roach88/activeset/internal/testutil"
)

// ReplayResult is the outcome of replaying a recorded event log.
type ReplayResult struct {
	EngineID string `json:"engine_id"`

	// Replayed is the number of records that reproduced identically,
	// INITIALIZED included.
	Replayed int `json:"replayed"`

	// Mismatches describes the first divergence, if any. Replay stops there
	// since later comparisons would be meaningless.
	Mismatches []string `json:"mismatches,omitempty"`

	// Final is the reconstructed engine state after the last replayed record.
	Final FinalState `json:"final"`
}

// Pass reports whether every record was reproduced.
func (r *ReplayResult) Pass() bool {
	return len(r.Mismatches) == 0
}

// Replay rebuilds an engine from a recorded event log and checks that
// re-applying each event regenerates the same record.
//
// Contents and active positions come from the log's INITIALIZED records;
// cfg supplies the behavior the log cannot carry: the activation limit and
// its behavior, circularity and direction labels. Autoplay and cooldown are
// disabled because every timer-driven change is already in the log. Event
// IDs exclude wall-clock time, so records compare by ID.
//
// records must belong to one engine, be ordered by seq, and start with an
// INITIALIZED record.
func Replay(cfg engine.Config[string], records []ir.EventRecord) (*ReplayResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("replay: no records")
	}
	first := records[0]
	if first.Type != string(engine.EventInitialized) {
		return nil, fmt.Errorf("replay: log starts with %s at seq %d, want %s", first.Type, first.Seq, engine.EventInitialized)
	}

	base := cfg
	base.Active = nil
	base.Autoplay = nil
	base.Cooldown = 0
	base.CooldownFunc = nil
	base.KeepHistoryFor = 0

	initCfg, err := configAt(base, first)
	if err != nil {
		return nil, fmt.Errorf("replay: seq %d: %w", first.Seq, err)
	}

	var start time.Time
	if first.TimeUnixNano != 0 {
		start = time.Unix(0, first.TimeUnixNano).UTC()
	}
	e, err := engine.New(initCfg,
		engine.WithClock(testutil.NewVirtualClock(start)),
		engine.WithIDGenerator(testutil.NewFixedIDGenerator(first.EngineID)),
		engine.WithSequencer(engine.NewSequencerAt(first.Seq-1)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("replay: seq %d: %w", first.Seq, err)
	}

	var regenerated []ir.EventRecord
	collect := func(_ *engine.Engine[string], ev engine.Event[string]) {
		// String events always convert.
		rec, _ := store.RecordFromEvent(ev)
		regenerated = append(regenerated, rec)
	}
	collect(e, e.Initialized())
	unsubscribe := e.Subscribe(collect)
	defer unsubscribe()

	result := &ReplayResult{EngineID: first.EngineID}
	for i, rec := range records {
		if i > 0 {
			if rec.EngineID != first.EngineID {
				return nil, fmt.Errorf("replay: seq %d belongs to engine %s, want %s", rec.Seq, rec.EngineID, first.EngineID)
			}
			before := len(regenerated)
			if err := applyRecord(e, base, rec); err != nil {
				result.Mismatches = append(result.Mismatches,
					fmt.Sprintf("seq %d (%s): apply failed: %v", rec.Seq, rec.Type, err))
				break
			}
			if got := len(regenerated) - before; got != 1 {
				result.Mismatches = append(result.Mismatches,
					fmt.Sprintf("seq %d (%s): regenerated %d events, want 1", rec.Seq, rec.Type, got))
				break
			}
		}

		if msg := compareRecord(rec, regenerated[len(regenerated)-1]); msg != "" {
			result.Mismatches = append(result.Mismatches, msg)
			break
		}
		result.Replayed++
	}

	result.Final = captureFinalState(e)
	return result, nil
}

// configAt is base with the contents and active positions of an
// INITIALIZED record.
func configAt(base engine.Config[string], rec ir.EventRecord) (engine.Config[string], error) {
	contents, err := stringValues(rec.Values)
	if err != nil {
		return engine.Config[string]{}, err
	}
	cfg := base
	cfg.Contents = contents
	cfg.ActiveIndexes = make([]int, len(rec.Indexes))
	for i, idx := range rec.Indexes {
		cfg.ActiveIndexes[i] = int(idx)
	}
	return cfg, nil
}

// applyRecord performs the engine call that emits rec.
func applyRecord(e *engine.Engine[string], base engine.Config[string], rec ir.EventRecord) error {
	idx := make([]int, len(rec.Indexes))
	for i, v := range rec.Indexes {
		idx[i] = int(v)
	}
	need := func(n int) error {
		if len(idx) < n {
			return fmt.Errorf("%s record has %d indexes, want %d", rec.Type, len(idx), n)
		}
		return nil
	}
	at := func(s engine.Snapshot[string]) bool { return slices.Contains(idx, s.Index) }

	switch engine.EventType(rec.Type) {
	case engine.EventInitialized:
		cfg, err := configAt(base, rec)
		if err != nil {
			return err
		}
		return e.Initialize(cfg)
	case engine.EventActivated:
		if err := need(1); err != nil {
			return err
		}
		return e.Activate(idx[0], engine.Auto())
	case engine.EventDeactivated:
		if err := need(1); err != nil {
			return err
		}
		return e.Deactivate(idx[0], engine.Auto())
	case engine.EventActivatedMultiple:
		return e.ActivateByPredicate(at, engine.Auto())
	case engine.EventDeactivatedMultiple:
		return e.DeactivateByPredicate(at, engine.Auto())
	case engine.EventInserted:
		if err := need(1); err != nil {
			return err
		}
		values, err := stringValues(rec.Values)
		if err != nil {
			return err
		}
		if len(values) != 1 {
			return fmt.Errorf("INSERTED record has %d values, want 1", len(values))
		}
		return e.Insert(values[0], idx[0])
	case engine.EventRemoved:
		if err := need(1); err != nil {
			return err
		}
		_, err := e.Remove(idx[0])
		return err
	case engine.EventRemovedMultiple:
		e.RemoveByPredicate(at)
		return nil
	case engine.EventSwapped:
		if err := need(2); err != nil {
			return err
		}
		return e.Swap(idx[0], idx[1])
	case engine.EventMoved:
		if err := need(2); err != nil {
			return err
		}
		return e.Move(idx[0], idx[1])
	default:
		return fmt.Errorf("unknown event type %q", rec.Type)
	}
}

// compareRecord returns a description of how got differs from want, or ""
// if they match.
func compareRecord(want, got ir.EventRecord) string {
	wantID := want.ID
	if wantID == "" {
		id, err := ir.EventID(want)
		if err != nil {
			return fmt.Sprintf("seq %d: %v", want.Seq, err)
		}
		wantID = id
	}
	if got.ID == wantID {
		return ""
	}
	return fmt.Sprintf("seq %d: recorded %s, replay produced seq %d %s",
		want.Seq, describeRecord(want), got.Seq, describeRecord(got))
}

func stringValues(arr ir.Array) ([]string, error) {
	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(ir.String)
		if !ok {
			return nil, fmt.Errorf("value %d is %T, want string", i, v)
		}
		out[i] = string(s)
	}
	return out, nil
}
