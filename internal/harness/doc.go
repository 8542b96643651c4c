// Package harness provides conformance testing for activation engines.
//
// The harness builds an engine from a CUE preset or an inline config,
// drives it through scripted steps on a virtual clock, checks the engine
// invariants after every step, and validates the event trace and final
// state against assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config:
//	  contents: [home, about, contact]
//	  max_activation_limit: 1
//	  circular: true
//	  autoplay: { duration: 5s }
//	steps:
//	  - op: activate
//	    index: 1
//	    user: true
//	  - op: advance
//	    duration: 5s
//	  - op: remove
//	    index: 0
//	    expect_values: [home]
//	  - op: activate
//	    index: 9
//	    expect_error: INDEX_OUT_OF_BOUNDS
//	assertions:
//	  - type: event_contains
//	    event: ACTIVATED
//	    values: [about]
//	  - type: final_state
//	    active: [contact]
//
// A scenario may reference a preset instead of an inline config:
//
//	preset:
//	  dir: ../presets
//	  name: carousel
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - event_contains: an event of the given type with matching payload exists
//   - event_order: event types appear in the given relative order
//   - event_count: an event type appears exactly N times
//   - final_state: the engine ends with the given contents, active set,
//     direction, autoplay and cooldown state
//
// # Deterministic Testing
//
// All scenarios execute with a virtual clock and a fixed engine ID, so
// identical scenarios produce byte-identical traces. Golden snapshots of
// the trace are compared with goldie in tests (RunWithGolden) and with
// RunDir from the command line.
//
// # Replay
//
// Replay re-applies a recorded event log to a fresh engine and reports the
// first record it cannot reproduce.
package harness
