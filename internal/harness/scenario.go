package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/activeset/internal/engine"
	"github.com/roach88/activeset/internal/ir"
)

// Scenario defines a conformance test scenario.
// A scenario builds one engine, drives it through a list of steps under a
// virtual clock, and asserts on the resulting event trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Preset loads the engine configuration from a CUE presets directory.
	// Exactly one of Preset and Config must be set.
	Preset *PresetRef `yaml:"preset,omitempty"`

	// Config is an inline engine configuration.
	Config *ConfigSpec `yaml:"config,omitempty"`

	// EngineID is a fixed engine ID for deterministic traces.
	// If empty, defaults to "scenario-engine".
	EngineID string `yaml:"engine_id,omitempty"`

	// Steps are executed in order. The engine invariants are checked after
	// every step.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: event_contains, event_order, event_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// PresetRef names a preset in a CUE presets directory.
type PresetRef struct {
	// Dir is resolved relative to the scenario file.
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

// ConfigSpec is the YAML form of ir.PresetSpec.
type ConfigSpec struct {
	Contents           []string          `yaml:"contents"`
	MaxActivationLimit int64             `yaml:"max_activation_limit,omitempty"`
	LimitBehavior      string            `yaml:"limit_behavior,omitempty"`
	Active             []string          `yaml:"active,omitempty"`
	ActiveIndexes      []int64           `yaml:"active_indexes,omitempty"`
	Circular           bool              `yaml:"circular,omitempty"`
	Directions         *DirectionsConfig `yaml:"directions,omitempty"`
	KeepHistoryFor     int64             `yaml:"keep_history_for,omitempty"`
	Cooldown           string            `yaml:"cooldown,omitempty"`
	Autoplay           *AutoplayConfig   `yaml:"autoplay,omitempty"`
}

// DirectionsConfig is the YAML form of ir.DirectionsSpec.
type DirectionsConfig struct {
	Next     string `yaml:"next"`
	Previous string `yaml:"previous"`
}

// AutoplayConfig is the YAML form of ir.AutoplaySpec.
type AutoplayConfig struct {
	Duration               string `yaml:"duration"`
	StopsOnUserInteraction bool   `yaml:"stops_on_user_interaction,omitempty"`
}

// PresetSpec converts the inline config to a preset named name.
func (c *ConfigSpec) PresetSpec(name string) ir.PresetSpec {
	p := ir.PresetSpec{
		Name:               name,
		Contents:           c.Contents,
		MaxActivationLimit: c.MaxActivationLimit,
		LimitBehavior:      c.LimitBehavior,
		Active:             c.Active,
		ActiveIndexes:      c.ActiveIndexes,
		Circular:           c.Circular,
		KeepHistoryFor:     c.KeepHistoryFor,
		Cooldown:           c.Cooldown,
	}
	if c.Directions != nil {
		p.Directions = &ir.DirectionsSpec{Next: c.Directions.Next, Previous: c.Directions.Previous}
	}
	if c.Autoplay != nil {
		p.Autoplay = &ir.AutoplaySpec{
			Duration:               c.Autoplay.Duration,
			StopsOnUserInteraction: c.Autoplay.StopsOnUserInteraction,
		}
	}
	return p
}

// Step is one operation against the engine.
//
// Op selects the operation; the remaining fields are its arguments. Ops
// prefixed with "content_" act on the Content currently at Index.
type Step struct {
	Op string `yaml:"op"`

	Index     *int       `yaml:"index,omitempty"`
	To        *int       `yaml:"to,omitempty"`
	Value     string     `yaml:"value,omitempty"`
	Other     string     `yaml:"other,omitempty"`
	Match     *MatchSpec `yaml:"match,omitempty"`
	Placement string     `yaml:"placement,omitempty"`

	// User marks activation requests as user interactions.
	User bool `yaml:"user,omitempty"`

	// Cooldown overrides the configured cooldown for this request.
	Cooldown string `yaml:"cooldown,omitempty"`

	// Duration is the virtual time moved by the advance op.
	Duration string `yaml:"duration,omitempty"`

	// ExpectError is the engine error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectValues are the values a removal step must return.
	ExpectValues []string `yaml:"expect_values,omitempty"`
}

// MatchSpec is a predicate over content snapshots. Every set field must
// hold for a content to match.
type MatchSpec struct {
	Value  string `yaml:"value,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	Active *bool  `yaml:"active,omitempty"`
	Index  *int   `yaml:"index,omitempty"`
}

// Predicate returns the engine predicate described by m.
func (m *MatchSpec) Predicate() engine.Predicate[string] {
	return func(s engine.Snapshot[string]) bool {
		if m.Value != "" && s.Value != ir.NormalizeString(m.Value) {
			return false
		}
		if m.Prefix != "" && !strings.HasPrefix(s.Value, ir.NormalizeString(m.Prefix)) {
			return false
		}
		if m.Active != nil && s.IsActive != *m.Active {
			return false
		}
		if m.Index != nil && s.Index != *m.Index {
			return false
		}
		return true
	}
}

func (m *MatchSpec) empty() bool {
	return m.Value == "" && m.Prefix == "" && m.Active == nil && m.Index == nil
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_contains": an event of Event type with the given payload exists
	// - "event_order": Events appear in the trace in this relative order
	// - "event_count": Event appears exactly Count times
	// - "final_state": the engine ends in the given state
	Type string `yaml:"type"`

	// Event is the event type (used by event_contains, event_count).
	Event string `yaml:"event,omitempty"`

	// Values and Indexes must equal the event payload when set
	// (used by event_contains). Values are also the expected contents for
	// final_state.
	Values  []string `yaml:"values,omitempty"`
	Indexes []int64  `yaml:"indexes,omitempty"`

	// EvictedValues must equal the evicted payload when set
	// (used by event_contains).
	EvictedValues []string `yaml:"evicted_values,omitempty"`

	// Events is the expected order (used by event_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (used by event_count).
	Count int `yaml:"count,omitempty"`

	// Final state fields (used by final_state). Unset fields are not checked.
	Active         []string `yaml:"active,omitempty"`
	ActiveIndexes  []int    `yaml:"active_indexes,omitempty"`
	LastActivated  *string  `yaml:"last_activated,omitempty"`
	Direction      string   `yaml:"direction,omitempty"`
	Playing        *bool    `yaml:"playing,omitempty"`
	CooldownActive *bool    `yaml:"cooldown_active,omitempty"`
	NoneActive     bool     `yaml:"none_active,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Preset directories are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the preset directory relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Preset != nil && !filepath.IsAbs(scenario.Preset.Dir) && basePath != "" {
		scenario.Preset.Dir = filepath.Join(basePath, scenario.Preset.Dir)
		if err := validatePresetDir(scenario.Preset.Dir); err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. Preset directories are left as
// written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validatePresetDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("preset dir not found: %s", dir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("preset dir is not a directory: %s", dir)
	}
	return nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Preset == nil && s.Config == nil:
		return fmt.Errorf("one of preset or config is required")
	case s.Preset != nil && s.Config != nil:
		return fmt.Errorf("preset and config are mutually exclusive")
	case s.Preset != nil && (s.Preset.Dir == "" || s.Preset.Name == ""):
		return fmt.Errorf("preset: dir and name are required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that a step names a known op and carries the
// arguments that op needs.
func validateStep(i int, s *Step) error {
	if s.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", i)
	}
	spec, ok := ops[s.Op]
	if !ok {
		return fmt.Errorf("steps[%d]: unknown op %q", i, s.Op)
	}

	need := func(ok bool, field string) error {
		if !ok {
			return fmt.Errorf("steps[%d]: %s is required for %s", i, field, s.Op)
		}
		return nil
	}
	for _, arg := range spec.args {
		var err error
		switch arg {
		case argIndex:
			err = need(s.Index != nil, "index")
		case argTo:
			err = need(s.To != nil, "to")
		case argValue:
			err = need(s.Value != "", "value")
		case argOther:
			err = need(s.Other != "", "other")
		case argMatch:
			err = need(s.Match != nil && !s.Match.empty(), "match")
		case argPlacement:
			err = need(engine.Placement(s.Placement).Valid(), "placement (at, before or after)")
		case argDuration:
			err = need(s.Duration != "", "duration")
		}
		if err != nil {
			return err
		}
	}

	if s.Duration != "" {
		if d, err := time.ParseDuration(s.Duration); err != nil || d < 0 {
			return fmt.Errorf("steps[%d]: invalid duration %q", i, s.Duration)
		}
	}
	if s.Cooldown != "" {
		if _, err := time.ParseDuration(s.Cooldown); err != nil {
			return fmt.Errorf("steps[%d]: invalid cooldown %q", i, s.Cooldown)
		}
	}
	if s.ExpectError != "" && !knownErrorCodes[engine.ErrorCode(s.ExpectError)] {
		return fmt.Errorf("steps[%d]: unknown error code %q", i, s.ExpectError)
	}
	return nil
}

var knownErrorCodes = map[engine.ErrorCode]bool{
	engine.ErrCodeIndexOutOfBounds:        true,
	engine.ErrCodeItemNotFound:            true,
	engine.ErrCodeActivationLimitReached:  true,
	engine.ErrCodeCooldownDurationInvalid: true,
	engine.ErrCodeAutoplayDurationInvalid: true,
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if !engine.EventType(a.Event).Valid() {
			return fmt.Errorf("assertions[%d]: event_contains needs a known event type, got %q", index, a.Event)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
		for _, ev := range a.Events {
			if !engine.EventType(ev).Valid() {
				return fmt.Errorf("assertions[%d]: unknown event type %q", index, ev)
			}
		}
	case AssertEventCount:
		if !engine.EventType(a.Event).Valid() {
			return fmt.Errorf("assertions[%d]: event_count needs a known event type, got %q", index, a.Event)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertFinalState:
		if a.Values == nil && a.Active == nil && a.ActiveIndexes == nil && a.LastActivated == nil &&
			a.Direction == "" && a.Playing == nil && a.CooldownActive == nil && !a.NoneActive {
			return fmt.Errorf("assertions[%d]: final_state must check at least one field", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
