package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/activeset/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Trace    []ir.EventRecord // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, rec := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", rec.Seq, describeRecord(rec))
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventContains:
			err = assertEventContains(result.Trace, a)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, a)
		case AssertEventCount:
			err = assertEventCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result.Final, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertEventContains checks that some event of the given type carries the
// expected payload. Unset payload fields match anything.
func assertEventContains(trace []ir.EventRecord, a Assertion) error {
	for _, rec := range trace {
		if rec.Type != a.Event {
			continue
		}
		if a.Values != nil && !slices.Equal(stringsOf(rec.Values), normAll(a.Values)) {
			continue
		}
		if a.Indexes != nil && !slices.Equal(rec.Indexes, a.Indexes) {
			continue
		}
		if a.EvictedValues != nil && !slices.Equal(stringsOf(rec.EvictedValues), normAll(a.EvictedValues)) {
			continue
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: describeExpected(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertEventOrder checks that the event types appear in the given relative
// order. Events don't need to be consecutive.
func assertEventOrder(trace []ir.EventRecord, a Assertion) error {
	next := 0
	for _, rec := range trace {
		if next < len(a.Events) && rec.Type == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("events in order: %v", a.Events),
		Actual:   fmt.Sprintf("matched %v, then no %s", a.Events[:next], a.Events[next]),
		Trace:    trace,
	}
}

// assertEventCount checks that the event type appears exactly Count times.
func assertEventCount(trace []ir.EventRecord, a Assertion) error {
	count := 0
	for _, rec := range trace {
		if rec.Type == a.Event {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the set fields of a against the final state.
func assertFinalState(fs FinalState, a Assertion) error {
	mismatch := func(field string, want, got any) error {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %v", field, want),
			Actual:   fmt.Sprintf("%s = %v", field, got),
		}
	}

	if a.Values != nil && !slices.Equal(fs.Values, normAll(a.Values)) {
		return mismatch("values", normAll(a.Values), fs.Values)
	}
	if a.Active != nil && !slices.Equal(fs.Active, normAll(a.Active)) {
		return mismatch("active", normAll(a.Active), fs.Active)
	}
	if a.ActiveIndexes != nil && !slices.Equal(fs.ActiveIndexes, a.ActiveIndexes) {
		return mismatch("active_indexes", a.ActiveIndexes, fs.ActiveIndexes)
	}
	if a.NoneActive && len(fs.Active) > 0 {
		return mismatch("active", "[]", fs.Active)
	}
	if a.LastActivated != nil {
		want := norm(*a.LastActivated)
		if fs.LastActivated == nil {
			return mismatch("last_activated", want, "<none>")
		}
		if *fs.LastActivated != want {
			return mismatch("last_activated", want, *fs.LastActivated)
		}
	}
	if a.Direction != "" && fs.Direction != a.Direction {
		return mismatch("direction", a.Direction, fs.Direction)
	}
	if a.Playing != nil && fs.Playing != *a.Playing {
		return mismatch("playing", *a.Playing, fs.Playing)
	}
	if a.CooldownActive != nil && fs.CooldownActive != *a.CooldownActive {
		return mismatch("cooldown_active", *a.CooldownActive, fs.CooldownActive)
	}
	return nil
}

func describeExpected(a Assertion) string {
	var buf strings.Builder
	buf.WriteString(a.Event)
	if a.Values != nil {
		fmt.Fprintf(&buf, " values=%q", normAll(a.Values))
	}
	if a.Indexes != nil {
		fmt.Fprintf(&buf, " indexes=%v", a.Indexes)
	}
	if a.EvictedValues != nil {
		fmt.Fprintf(&buf, " evicted=%q", normAll(a.EvictedValues))
	}
	return buf.String()
}

// describeRecord renders one trace event on a single line.
func describeRecord(rec ir.EventRecord) string {
	s := fmt.Sprintf("%s values=%q indexes=%v", rec.Type, stringsOf(rec.Values), rec.Indexes)
	if len(rec.EvictedIndexes) > 0 {
		s += fmt.Sprintf(" evicted=%q@%v", stringsOf(rec.EvictedValues), rec.EvictedIndexes)
	}
	return s
}

// stringsOf renders an event payload as strings. Scenario engines hold
// strings, so other values only show up in hand-built records.
func stringsOf(arr ir.Array) []string {
	out := make([]string, len(arr))
	for i, v := range arr {
		if s, ok := v.(ir.String); ok {
			out[i] = string(s)
		} else {
			out[i] = fmt.Sprint(ir.ToAny(v))
		}
	}
	return out
}

func normAll(vs []string) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = norm(v)
	}
	return out
}
