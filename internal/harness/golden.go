package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/activeset/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string           `json:"scenario_name"`
	EngineID     string           `json:"engine_id"`
	Trace        []ir.EventRecord `json:"trace"`
	Final        FinalState       `json:"final"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, rec := range s.Trace {
		eventMap := map[string]any{
			"id":             rec.ID,
			"seq":            rec.Seq,
			"type":           rec.Type,
			"time_unix_nano": rec.TimeUnixNano,
			"values":         nonNil(rec.Values),
			"indexes":        int64s(rec.Indexes),
		}
		if len(rec.EvictedIndexes) > 0 {
			eventMap["evicted_values"] = nonNil(rec.EvictedValues)
			eventMap["evicted_indexes"] = int64s(rec.EvictedIndexes)
		}
		traceList[i] = eventMap
	}

	final := map[string]any{
		"values":               strs(s.Final.Values),
		"active":               strs(s.Final.Active),
		"active_indexes":       ints(s.Final.ActiveIndexes),
		"last_activated_index": int64(s.Final.LastActivatedIndex),
		"direction":            s.Final.Direction,
		"playing":              s.Final.Playing,
		"cooldown_active":      s.Final.CooldownActive,
	}
	if s.Final.LastActivated != nil {
		final["last_activated"] = *s.Final.LastActivated
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"engine_id":     s.EngineID,
		"trace":         traceList,
		"final":         final,
	}
}

// Snapshot returns the canonical JSON of a scenario result, the content of
// its golden file.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		EngineID:     result.EngineID,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}

func nonNil(a ir.Array) ir.Array {
	if a == nil {
		return ir.Array{}
	}
	return a
}

func int64s(is []int64) []any {
	out := make([]any, len(is))
	for i, v := range is {
		out[i] = v
	}
	return out
}

func ints(is []int) []any {
	out := make([]any, len(is))
	for i, v := range is {
		out[i] = int64(v)
	}
	return out
}

func strs(ss []string) []any {
	out := make([]any, len(ss))
	for i, v := range ss {
		out[i] = v
	}
	return out
}
