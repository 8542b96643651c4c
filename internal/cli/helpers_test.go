package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testPresets is a preset package covering each limit behavior.
const testPresets = `
package presets

preset: tabs: {
	contents: ["home", "about", "contact"]
	active: ["home"]
}

preset: carousel: {
	contents: ["a", "b", "c"]
	active: ["a"]
	circular: true
	autoplay: duration: "5s"
}

preset: slides: {
	contents: ["one", "two", "three"]
	active: ["one"]
	autoplay: duration: "1s"
}

preset: strict: {
	contents: ["a", "b", "c"]
	max_activation_limit: 2
	limit_behavior:       "error"
}
`

// writePresets writes src as presets.cue in a fresh directory.
func writePresets(t *testing.T, src string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "presets")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "presets.cue"), []byte(src), 0644))
	return dir
}

// writeScenario writes a scenario file and returns its path.
func writeScenario(t *testing.T, dir, name, src string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

// execute runs cmd with args and returns everything it wrote.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// executeSplit is execute with stdout and stderr kept apart.
func executeSplit(cmd *cobra.Command, args ...string) (string, string, error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// harnessScenarios is the conformance scenario directory shared with the
// harness package.
func harnessScenarios(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("..", "harness", "testdata", "scenarios")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("harness testdata not found")
	}
	return dir
}

func textOpts() *RootOptions {
	return &RootOptions{Format: "text"}
}

func jsonOpts() *RootOptions {
	return &RootOptions{Format: "json"}
}
