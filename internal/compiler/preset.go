package compiler

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/activeset/internal/ir"
)

//go:embed schema.cue
var presetSchema string

// schemaFor compiles the preset schema in the runtime that owns v. Values
// from different runtimes cannot be unified.
func schemaFor(v cue.Value) cue.Value {
	return v.Context().CompileString(presetSchema, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Preset"))
}

// CompilePreset parses a CUE value into a PresetSpec.
//
// The value should be the preset struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`preset: tabs: { contents: ["a", "b"] }`)
//	spec, err := CompilePreset(v.LookupPath(cue.ParsePath("preset.tabs")))
//
// The value is unified with the closed #Preset schema first, so unknown
// fields, wrong kinds and floats are reported with their CUE position.
// Semantic rules (active values exist, durations parse) are checked by
// Validate.
func CompilePreset(v cue.Value) (*ir.PresetSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schemaFor(v).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.PresetSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labelName(labels[len(labels)-1])
	}
	if spec.Name == "" {
		return nil, &CompileError{
			Field:   "name",
			Message: "preset must be a named field under preset",
			Pos:     v.Pos(),
		}
	}

	var err error
	if spec.Description, err = optionalString(unified, "description"); err != nil {
		return nil, err
	}
	if spec.Contents, err = optionalStrings(unified, "contents"); err != nil {
		return nil, err
	}
	if spec.MaxActivationLimit, err = optionalInt(unified, "max_activation_limit"); err != nil {
		return nil, err
	}
	if spec.LimitBehavior, err = optionalString(unified, "limit_behavior"); err != nil {
		return nil, err
	}
	if spec.Active, err = optionalStrings(unified, "active"); err != nil {
		return nil, err
	}
	if spec.ActiveIndexes, err = optionalInts(unified, "active_indexes"); err != nil {
		return nil, err
	}
	if spec.Circular, err = optionalBool(unified, "circular"); err != nil {
		return nil, err
	}
	if spec.KeepHistoryFor, err = optionalInt(unified, "keep_history_for"); err != nil {
		return nil, err
	}
	if spec.Cooldown, err = optionalString(unified, "cooldown"); err != nil {
		return nil, err
	}

	if dv := unified.LookupPath(cue.ParsePath("directions")); dv.Exists() {
		d := &ir.DirectionsSpec{}
		if d.Next, err = optionalString(dv, "next"); err != nil {
			return nil, err
		}
		if d.Previous, err = optionalString(dv, "previous"); err != nil {
			return nil, err
		}
		spec.Directions = d
	}

	if av := unified.LookupPath(cue.ParsePath("autoplay")); av.Exists() {
		a := &ir.AutoplaySpec{}
		if a.Duration, err = optionalString(av, "duration"); err != nil {
			return nil, err
		}
		if a.StopsOnUserInteraction, err = optionalBool(av, "stops_on_user_interaction"); err != nil {
			return nil, err
		}
		spec.Autoplay = a
	}

	return spec, nil
}

// labelName returns the unquoted form of a struct label, so that
// "my-tabs" and my_tabs both yield plain names.
func labelName(sel cue.Selector) string {
	s := sel.String()
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s
}

func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", fieldError(path, fv, err)
	}
	return s, nil
}

func optionalInt(v cue.Value, path string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return 0, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, fieldError(path, fv, err)
	}
	return n, nil
}

func optionalBool(v cue.Value, path string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, fieldError(path, fv, err)
	}
	return b, nil
}

func optionalStrings(v cue.Value, path string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, fieldError(path, fv, err)
	}
	var out []string
	for i := 0; iter.Next(); i++ {
		s, err := iter.Value().String()
		if err != nil {
			return nil, fieldError(fmt.Sprintf("%s[%d]", path, i), iter.Value(), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalInts(v cue.Value, path string) ([]int64, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, fieldError(path, fv, err)
	}
	var out []int64
	for i := 0; iter.Next(); i++ {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, fieldError(fmt.Sprintf("%s[%d]", path, i), iter.Value(), err)
		}
		out = append(out, n)
	}
	return out, nil
}

func fieldError(field string, v cue.Value, err error) error {
	return &CompileError{
		Field:   field,
		Message: errors.Details(err, nil),
		Pos:     v.Pos(),
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}

	first := errs[0]
	ce := &CompileError{Field: "cue", Message: first.Error()}
	if path := errors.Path(first); len(path) > 0 {
		ce.Field = strings.Join(path, ".")
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
