package harness

import (
	"github.com/roach88/activeset/internal/engine"
	"github.com/roach88/activeset/internal/ir"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success: every step behaved as expected,
	// every invariant check held and every assertion matched.
	Pass bool `json:"pass"`

	// EngineID is the ID the scenario engine ran under.
	EngineID string `json:"engine_id"`

	// Trace contains every event the engine emitted, in seq order.
	// Used for event assertions and golden comparison.
	Trace []ir.EventRecord `json:"trace"`

	// Errors contains failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the engine state after the last step.
	Final FinalState `json:"final"`
}

// FinalState is the observable engine state checked by final_state
// assertions.
type FinalState struct {
	Values             []string `json:"values"`
	Active             []string `json:"active"`
	ActiveIndexes      []int    `json:"active_indexes"`
	LastActivated      *string  `json:"last_activated,omitempty"`
	LastActivatedIndex int      `json:"last_activated_index"`
	Direction          string   `json:"direction"`
	Playing            bool     `json:"playing"`
	CooldownActive     bool     `json:"cooldown_active"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.EventRecord{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends an event record to the trace.
func (r *Result) AddEvent(rec ir.EventRecord) {
	r.Trace = append(r.Trace, rec)
}

// captureFinalState reads the observable state of e.
func captureFinalState(e *engine.Engine[string]) FinalState {
	fs := FinalState{
		Values:             e.Values(),
		Active:             e.Active(),
		ActiveIndexes:      e.ActiveIndexes(),
		LastActivatedIndex: e.LastActivatedIndex(),
		Direction:          e.Direction(),
		Playing:            e.AutoplayState().Playing,
		CooldownActive:     e.CooldownActive(),
	}
	if v, ok := e.LastActivated(); ok {
		fs.LastActivated = &v
	}
	return fs
}
