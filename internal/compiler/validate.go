package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/activeset/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// PresetSpec errors (E101-E119)
	ErrPresetNameEmpty      = "E101" // name is required
	ErrDuplicateContent     = "E102" // content value appears twice
	ErrInvalidLimit         = "E103" // max_activation_limit below -1
	ErrInvalidLimitBehavior = "E104" // unknown limit_behavior
	ErrUnknownActiveValue   = "E105" // active value not in contents
	ErrActiveIndexRange     = "E106" // active index outside contents
	ErrInitialExceedsLimit  = "E107" // error mode with too many initial activations
	ErrInvalidDirections    = "E108" // missing or equal direction labels
	ErrInvalidHistory       = "E109" // negative keep_history_for
	ErrInvalidDuration      = "E110" // cooldown or autoplay duration
	ErrDuplicatePresetName  = "E111" // two presets share a name
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Preset  string `json:"preset,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Preset != "" {
		return fmt.Sprintf("[%s] preset %s: %s: %s", e.Code, e.Preset, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.PresetSpec:
		return validatePreset(spec)
	case ir.PresetSpec:
		return validatePreset(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// ValidatePresets validates each preset and checks names are unique.
func ValidatePresets(specs []ir.PresetSpec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(specs))
	for i := range specs {
		errs = append(errs, validatePreset(&specs[i])...)

		name := specs[i].Name
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   "name",
				Message: fmt.Sprintf("duplicate preset name %q", name),
				Code:    ErrDuplicatePresetName,
				Preset:  name,
			})
		}
		seen[name] = true
	}
	return errs
}

func validatePreset(spec *ir.PresetSpec) []ValidationError {
	var errs []ValidationError
	for _, e := range spec.Validate() {
		errs = append(errs, ValidationError{
			Field:   e.Field,
			Message: e.Message,
			Code:    CodeForField(e.Field),
			Preset:  spec.Name,
		})
	}
	return errs
}

// CodeForField maps an ir validation field path to its error code.
func CodeForField(field string) string {
	root, _, _ := strings.Cut(field, "[")
	switch root {
	case "name":
		return ErrPresetNameEmpty
	case "contents":
		return ErrDuplicateContent
	case "max_activation_limit":
		return ErrInvalidLimit
	case "limit_behavior":
		return ErrInvalidLimitBehavior
	case "active":
		if field == "active" {
			return ErrInitialExceedsLimit
		}
		return ErrUnknownActiveValue
	case "active_indexes":
		return ErrActiveIndexRange
	case "directions":
		return ErrInvalidDirections
	case "keep_history_for":
		return ErrInvalidHistory
	case "cooldown", "autoplay.duration":
		return ErrInvalidDuration
	default:
		return ErrUnsupportedIRType
	}
}
