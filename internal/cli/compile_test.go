package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/activeset/internal/compiler"
	"github.com/roach88/activeset/internal/ir"
)

func TestCompileCommand(t *testing.T) {
	dir := writePresets(t, testPresets)

	out, err := execute(NewCompileCommand(textOpts()), dir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 4 preset(s)")
	assert.Contains(t, out, "PRESET")
	assert.Contains(t, out, "carousel")
	assert.Contains(t, out, "3 contents, limit 1 (circular), circular, autoplay 5s")
	assert.Contains(t, out, "3 contents, limit 2 (error)")
}

func TestCompileCommandJSON(t *testing.T) {
	dir := writePresets(t, testPresets)

	out, err := execute(NewCompileCommand(jsonOpts()), dir)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ir.IRVersion, resp.Data.IRVersion)
	require.Len(t, resp.Data.Presets, 4)

	// Sorted by name, each with a stable hash.
	names := make([]string, len(resp.Data.Presets))
	for i, p := range resp.Data.Presets {
		names[i] = p.Preset.Name
		want, err := ir.PresetHash(p.Preset)
		require.NoError(t, err)
		assert.Equal(t, want, p.Hash, "hash of %s", p.Preset.Name)
	}
	assert.Equal(t, []string{"carousel", "slides", "strict", "tabs"}, names)
}

func TestCompileCommandOutputFile(t *testing.T) {
	dir := writePresets(t, testPresets)
	outFile := filepath.Join(t.TempDir(), "presets.json")

	out, err := execute(NewCompileCommand(textOpts()), dir, "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical IR to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Presets, 4)
}

func TestCompileCommandHashIsStable(t *testing.T) {
	dir := writePresets(t, testPresets)

	first, err := execute(NewCompileCommand(jsonOpts()), dir)
	require.NoError(t, err)
	second, err := execute(NewCompileCommand(jsonOpts()), dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompileCommandMissingDir(t *testing.T) {
	out, err := execute(NewCompileCommand(textOpts()), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
	assert.Contains(t, out, "presets directory not found")
}

func TestCompileCommandNoFiles(t *testing.T) {
	out, err := execute(NewCompileCommand(jsonOpts()), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNoFiles, resp.Error.Code)
}

func TestCompileCommandSchemaError(t *testing.T) {
	dir := writePresets(t, `
package presets

preset: bad: limit_behavior: "drop"
`)

	out, err := execute(NewCompileCommand(textOpts()), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, err.Error(), "compilation failed with 1 error(s)")
}

func TestCompileCommandValidationError(t *testing.T) {
	dir := writePresets(t, `
package presets

preset: dup: contents: ["a", "a"]
preset: ok: contents: ["a"]
`)

	out, err := execute(NewCompileCommand(jsonOpts()), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Error  CLIError   `json:"error"`
		Data   []CLIError `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, compiler.ErrDuplicateContent, resp.Error.Code)
	assert.True(t, strings.HasPrefix(resp.Error.Message, "preset dup:"), resp.Error.Message)
	assert.Len(t, resp.Data, 1)
}

func TestCompileCommandVerbose(t *testing.T) {
	dir := writePresets(t, testPresets)
	opts := &RootOptions{Format: "json", Verbose: true}

	out, errOut, err := executeSplit(NewCompileCommand(opts), dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Found 1 CUE file(s)")
	assert.Contains(t, errOut, "Compiling preset: tabs")
	assert.NotContains(t, out, "Compiling preset")
}

func TestDescribePreset(t *testing.T) {
	tests := []struct {
		name   string
		preset ir.PresetSpec
		want   string
	}{
		{
			name:   "defaults",
			preset: ir.PresetSpec{Contents: []string{"a"}},
			want:   "1 contents, limit 1 (circular)",
		},
		{
			name:   "unlimited",
			preset: ir.PresetSpec{Contents: []string{"a", "b"}, MaxActivationLimit: -1},
			want:   "2 contents, unlimited",
		},
		{
			name:   "cooldown",
			preset: ir.PresetSpec{MaxActivationLimit: 3, LimitBehavior: "ignore", Cooldown: "200ms"},
			want:   "0 contents, limit 3 (ignore), cooldown 200ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describePreset(tt.preset))
		})
	}
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("sha256:0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"", ErrCodeGeneric},
		{"cue", ErrCodeGeneric},
		{"name", compiler.ErrPresetNameEmpty},
		{"preset.tabs.max_activation_limit", compiler.ErrInvalidLimit},
		{"preset.tabs.limit_behavior", compiler.ErrInvalidLimitBehavior},
		{"preset.tabs.active_indexes", compiler.ErrActiveIndexRange},
		{"preset.tabs.autoplay.duration", compiler.ErrInvalidDuration},
		{"preset.tabs.cooldown", compiler.ErrInvalidDuration},
		{"preset.tabs.circular", ErrCodeSchema},
		{"preset.tabs", ErrCodeSchema},
		{"other.field", ErrCodeSchema},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}

func TestLoadPresetsFailFast(t *testing.T) {
	dir := writePresets(t, `
package presets

preset: a: contents: ["x", "x"]
preset: b: contents: ["y", "y"]
`)

	result, errs := LoadPresets(dir, LoadModeFailFast)
	require.NotNil(t, result)
	assert.Len(t, errs, 1)

	result, errs = LoadPresets(dir, LoadModeCollectAll)
	require.NotNil(t, result)
	assert.Len(t, errs, 2)
	assert.Len(t, result.Presets, 2)
}

func TestLoadErrorFormatting(t *testing.T) {
	err := &LoadError{Code: compiler.ErrInvalidLimit, Message: "must be >= -1", Preset: "tabs"}
	assert.Equal(t, "E103: preset tabs: must be >= -1", err.Error())

	err = &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in x"}
	assert.Equal(t, "E003: no CUE files found in x", err.Error())
}
