package ir

import (
	"fmt"
	"time"
)

// Limit behaviors accepted by PresetSpec.LimitBehavior. Empty means circular.
var ValidLimitBehaviors = map[string]bool{
	"":         true,
	"circular": true,
	"error":    true,
	"ignore":   true,
}

// PresetSpec is a compiled engine preset: a named, serializable engine
// configuration over string values.
//
// Durations are Go duration strings ("750ms", "5s") so that presets stay
// float-free.
type PresetSpec struct {
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Contents           []string        `json:"contents,omitempty"`
	MaxActivationLimit int64           `json:"max_activation_limit,omitempty"` // 0 = 1, -1 = unbounded
	LimitBehavior      string          `json:"limit_behavior,omitempty"`
	Active             []string        `json:"active,omitempty"`
	ActiveIndexes      []int64         `json:"active_indexes,omitempty"`
	Circular           bool            `json:"circular,omitempty"`
	Directions         *DirectionsSpec `json:"directions,omitempty"`
	KeepHistoryFor     int64           `json:"keep_history_for,omitempty"`
	Cooldown           string          `json:"cooldown,omitempty"`
	Autoplay           *AutoplaySpec   `json:"autoplay,omitempty"`
}

// DirectionsSpec names the two traversal directions.
type DirectionsSpec struct {
	Next     string `json:"next"`
	Previous string `json:"previous"`
}

// AutoplaySpec configures automatic advancing.
type AutoplaySpec struct {
	Duration               string `json:"duration"`
	StopsOnUserInteraction bool   `json:"stops_on_user_interaction,omitempty"`
}

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the preset against schema rules.
// Returns all errors (not fail-fast) for better developer experience.
func (p *PresetSpec) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if p.Name == "" {
		add("name", "name is required")
	}

	seen := make(map[string]int, len(p.Contents))
	for i, c := range p.Contents {
		if j, dup := seen[c]; dup {
			add(fmt.Sprintf("contents[%d]", i), "duplicate content %q (first at index %d)", c, j)
			continue
		}
		seen[c] = i
	}

	if p.MaxActivationLimit < -1 {
		add("max_activation_limit", "must be -1 (unbounded), 0 (default) or positive, got %d", p.MaxActivationLimit)
	}
	if !ValidLimitBehaviors[p.LimitBehavior] {
		add("limit_behavior", "invalid behavior %q, must be one of: circular, error, ignore", p.LimitBehavior)
	}

	for i, v := range p.Active {
		if _, ok := seen[v]; !ok {
			add(fmt.Sprintf("active[%d]", i), "value %q is not in contents", v)
		}
	}
	for i, idx := range p.ActiveIndexes {
		if idx < 0 || idx >= int64(len(p.Contents)) {
			add(fmt.Sprintf("active_indexes[%d]", i), "index %d is outside [0, %d)", idx, len(p.Contents))
		}
	}
	if p.LimitBehavior == "error" {
		limit := p.MaxActivationLimit
		if limit == 0 {
			limit = 1
		}
		if initial := int64(len(p.Active) + len(p.ActiveIndexes)); limit > 0 && initial > limit {
			add("active", "%d initial activations exceed max_activation_limit %d", initial, limit)
		}
	}

	if d := p.Directions; d != nil {
		if d.Next == "" || d.Previous == "" {
			add("directions", "next and previous labels are required")
		} else if d.Next == d.Previous {
			add("directions", "next and previous labels must differ, both are %q", d.Next)
		}
	}

	if p.KeepHistoryFor < 0 {
		add("keep_history_for", "must be >= 0, got %d", p.KeepHistoryFor)
	}

	if p.Cooldown != "" {
		if _, err := parsePositiveDuration(p.Cooldown); err != nil {
			add("cooldown", "%v", err)
		}
	}
	if p.Autoplay != nil {
		if _, err := parsePositiveDuration(p.Autoplay.Duration); err != nil {
			add("autoplay.duration", "%v", err)
		}
	}

	return errs
}

// CooldownDuration returns the parsed cooldown, or 0 when none is set.
func (p *PresetSpec) CooldownDuration() (time.Duration, error) {
	if p.Cooldown == "" {
		return 0, nil
	}
	return parsePositiveDuration(p.Cooldown)
}

// AutoplayDuration returns the parsed autoplay duration.
func (a *AutoplaySpec) AutoplayDuration() (time.Duration, error) {
	return parsePositiveDuration(a.Duration)
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}
