package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/activeset/internal/compiler"
	"github.com/roach88/activeset/internal/engine"
	"github.com/roach88/activeset/internal/ir"
	"github.com/roach88/activeset/internal/store"
	"github.com/roach88/activeset/internal/testutil"
)

// DefaultEngineID is the engine ID used when a scenario names none.
const DefaultEngineID = "scenario-engine"

// Options configures a scenario run.
type Options struct {
	// Store, when set, receives every event of the run.
	Store *store.Store

	// Logger receives step and engine logs. Default: discarded.
	Logger *slog.Logger

	// Start is the virtual clock's start time. Zero means testutil.Epoch.
	Start time.Time
}

// Harness is the test execution engine.
// It runs one scenario against a real engine on a virtual clock with a
// fixed engine ID, so identical scenarios produce identical traces.
type Harness struct {
	runner
	logger *slog.Logger
	result *Result
}

// Run executes a test scenario and returns the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), scenario, Options{})
}

// RunWithOptions executes a test scenario.
//
// Execution flow:
//  1. Resolve the engine configuration from the preset or inline config
//  2. Create the engine on a virtual clock and start tracing its events
//  3. Execute each step, checking its error expectation and the engine
//     invariants
//  4. Evaluate assertions against the trace and final state
//
// The returned error covers failures to set the run up; scenario failures
// are reported through Result.Pass and Result.Errors.
func RunWithOptions(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	cfg, err := ResolveConfig(scenario)
	if err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	engineID := scenario.EngineID
	if engineID == "" {
		engineID = DefaultEngineID
	}

	clock := testutil.NewVirtualClock(opts.Start)
	e, err := engine.New(cfg,
		engine.WithClock(clock),
		engine.WithIDGenerator(testutil.NewFixedIDGenerator(engineID)),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	h := &Harness{
		runner: runner{engine: e, clock: clock},
		logger: logger,
		result: NewResult(),
	}
	h.result.EngineID = e.ID()

	unsubscribe := e.Subscribe(h.trace)
	defer unsubscribe()
	h.trace(e, e.Initialized())

	var recorder *store.Recorder[string]
	if opts.Store != nil {
		recorder = store.NewRecorder[string](ctx, opts.Store, logger)
		defer recorder.Attach(e)()
	}

	for _, p := range CheckInvariants(e) {
		h.result.AddError(fmt.Sprintf("initial state: invariant violated: %s", p))
	}

	for i := range scenario.Steps {
		h.executeStep(i, &scenario.Steps[i])
	}

	h.result.Final = captureFinalState(e)
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return nil, fmt.Errorf("record events: %w", err)
		}
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", h.result.Pass,
		"events", len(h.result.Trace),
		"errors", len(h.result.Errors),
	)
	return h.result, nil
}

// ResolveConfig builds the engine configuration of a scenario.
func ResolveConfig(scenario *Scenario) (engine.Config[string], error) {
	var preset ir.PresetSpec
	switch {
	case scenario.Preset != nil:
		specs, err := compiler.LoadDir(scenario.Preset.Dir)
		if err != nil {
			return engine.Config[string]{}, err
		}
		p, ok := compiler.Find(specs, scenario.Preset.Name)
		if !ok {
			return engine.Config[string]{}, fmt.Errorf("preset %q not found in %s", scenario.Preset.Name, scenario.Preset.Dir)
		}
		preset = p
	case scenario.Config != nil:
		preset = scenario.Config.PresetSpec(scenario.Name)
	default:
		return engine.Config[string]{}, fmt.Errorf("scenario %s has neither preset nor config", scenario.Name)
	}
	return compiler.ConfigFromPreset(preset)
}

// trace is the engine subscriber that appends every event to the result.
func (h *Harness) trace(_ *engine.Engine[string], ev engine.Event[string]) {
	rec, err := store.RecordFromEvent(ev)
	if err != nil {
		h.result.AddError(fmt.Sprintf("trace event %d: %v", ev.Seq, err))
		return
	}
	h.result.AddEvent(rec)
}

// executeStep runs one step and records every way it deviated from the
// scenario: an unexpected or missing error, wrong removed values, or a
// broken invariant afterwards.
func (h *Harness) executeStep(i int, step *Step) {
	label := fmt.Sprintf("step %d (%s)", i, step.Op)
	before := len(h.result.Trace)

	spec, ok := ops[step.Op]
	if !ok {
		h.result.AddError(fmt.Sprintf("%s: unknown op", label))
		return
	}

	removed, err := spec.run(&h.runner, step)
	h.checkError(label, step, err)

	if step.ExpectValues != nil && err == nil {
		want := make([]string, len(step.ExpectValues))
		for k, v := range step.ExpectValues {
			want[k] = norm(v)
		}
		if !slices.Equal(removed, want) {
			h.result.AddError(fmt.Sprintf("%s: returned %q, want %q", label, removed, want))
		}
	}

	for _, p := range CheckInvariants(h.engine) {
		h.result.AddError(fmt.Sprintf("%s: invariant violated: %s", label, p))
	}

	h.logger.Debug("step executed",
		"step", i,
		"op", step.Op,
		"events", len(h.result.Trace)-before,
		"error", err,
	)
}

func (h *Harness) checkError(label string, step *Step, err error) {
	if step.ExpectError == "" {
		if err != nil {
			h.result.AddError(fmt.Sprintf("%s: unexpected error: %v", label, err))
		}
		return
	}

	if err == nil {
		h.result.AddError(fmt.Sprintf("%s: expected error %s, got none", label, step.ExpectError))
		return
	}
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		h.result.AddError(fmt.Sprintf("%s: expected error %s, got %v", label, step.ExpectError, err))
		return
	}
	if string(engErr.Code) != step.ExpectError {
		h.result.AddError(fmt.Sprintf("%s: expected error %s, got %s", label, step.ExpectError, engErr.Code))
	}
}
