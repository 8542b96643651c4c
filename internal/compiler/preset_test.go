package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/activeset/internal/ir"
)

func compileOne(t *testing.T, src, path string) (*ir.PresetSpec, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src, cue.Filename("presets.cue"))
	require.NoError(t, v.Err())
	return CompilePreset(v.LookupPath(cue.ParsePath(path)))
}

func TestCompilePresetFull(t *testing.T) {
	spec, err := compileOne(t, `
		preset: carousel: {
			description:          "Hero carousel"
			contents:             ["a", "b", "c"]
			max_activation_limit: 1
			limit_behavior:       "circular"
			active:               ["a"]
			active_indexes:       [2]
			circular:             true
			directions: {
				next:     "down"
				previous: "up"
			}
			keep_history_for: 5
			cooldown:         "300ms"
			autoplay: {
				duration:                  "5s"
				stops_on_user_interaction: true
			}
		}
	`, "preset.carousel")
	require.NoError(t, err)

	assert.Equal(t, &ir.PresetSpec{
		Name:               "carousel",
		Description:        "Hero carousel",
		Contents:           []string{"a", "b", "c"},
		MaxActivationLimit: 1,
		LimitBehavior:      "circular",
		Active:             []string{"a"},
		ActiveIndexes:      []int64{2},
		Circular:           true,
		Directions:         &ir.DirectionsSpec{Next: "down", Previous: "up"},
		KeepHistoryFor:     5,
		Cooldown:           "300ms",
		Autoplay:           &ir.AutoplaySpec{Duration: "5s", StopsOnUserInteraction: true},
	}, spec)
}

func TestCompilePresetMinimal(t *testing.T) {
	spec, err := compileOne(t, `preset: empty: {}`, "preset.empty")
	require.NoError(t, err)

	assert.Equal(t, "empty", spec.Name)
	assert.Nil(t, spec.Contents)
	assert.Nil(t, spec.Directions)
	assert.Nil(t, spec.Autoplay)
	assert.Zero(t, spec.MaxActivationLimit)
}

func TestCompilePresetQuotedName(t *testing.T) {
	spec, err := compileOne(t, `preset: "side-nav": { contents: ["x"] }`, `preset."side-nav"`)
	require.NoError(t, err)
	assert.Equal(t, "side-nav", spec.Name)
}

func TestCompilePresetSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `contents: ["a"], colour: "red"`},
		{"float limit", `max_activation_limit: 1.5`},
		{"limit below -1", `max_activation_limit: -3`},
		{"bad behavior", `limit_behavior: "drop"`},
		{"contents not strings", `contents: [1, 2]`},
		{"negative index", `active_indexes: [-1]`},
		{"empty direction", `directions: { next: "", previous: "up" }`},
		{"missing autoplay duration", `autoplay: { stops_on_user_interaction: true }`},
		{"negative history", `keep_history_for: -1`},
		{"non-concrete", `contents: [...string], cooldown: string`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileOne(t, "preset: bad: {"+tt.body+"}", "preset.bad")
			require.Error(t, err)

			var compileErr *CompileError
			assert.ErrorAs(t, err, &compileErr)
		})
	}
}

func TestCompileErrorFormatting(t *testing.T) {
	err := &CompileError{Field: "contents", Message: "must be a list"}
	assert.Equal(t, "contents: must be a list", err.Error())
}

func TestCompileErrorHasPosition(t *testing.T) {
	_, err := compileOne(t, `
preset: bad: {
	max_activation_limit: 2.5
}`, "preset.bad")
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.True(t, compileErr.Pos.IsValid())
	assert.Contains(t, err.Error(), ".cue:")
}
