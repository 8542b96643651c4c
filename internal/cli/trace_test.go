package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordTabs runs the tabs scenario with --record and returns the database.
func recordTabs(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := writeScenario(t, tmpDir, "tabs.yaml", tabsScenario)
	dbPath := filepath.Join(tmpDir, "events.db")

	_, err := execute(NewRunCommand(textOpts()), "--record", "--db", dbPath, path)
	require.NoError(t, err)
	return dbPath
}

type traceResponse struct {
	Status string      `json:"status"`
	Data   TraceResult `json:"data"`
}

func traceJSON(t *testing.T, args ...string) traceResponse {
	t.Helper()
	out, err := execute(NewTraceCommand(jsonOpts()), args...)
	require.NoError(t, err, out)

	var resp traceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestTraceCommandListEngines(t *testing.T) {
	dbPath := recordTabs(t)

	out, err := execute(NewTraceCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ENGINE", "EVENTS", "SEQ"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"tabs", "3", "1-3"}, strings.Fields(lines[1]))
}

func TestTraceCommandListEnginesJSON(t *testing.T) {
	dbPath := recordTabs(t)

	out, err := execute(NewTraceCommand(jsonOpts()), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Data EngineList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Engines, 1)
	assert.Equal(t, "tabs", resp.Data.Engines[0].EngineID)
	assert.Equal(t, int64(3), resp.Data.Engines[0].Events)
	assert.Equal(t, int64(2), resp.Data.Engines[0].CountsByType["ACTIVATED"])
}

func TestTraceCommandTimeline(t *testing.T) {
	dbPath := recordTabs(t)

	out, err := execute(NewTraceCommand(textOpts()), "--db", dbPath, "--engine", "tabs")
	require.NoError(t, err)

	assert.Contains(t, out, "Engine tabs")
	assert.Contains(t, out, "3 event(s), seq 1-3")
	assert.Contains(t, out, "ACTIVATED")
	assert.Contains(t, out, "[1] evicted [0]")
	assert.Contains(t, out, "home, about, contact")
}

func TestTraceCommandTimelineJSON(t *testing.T) {
	dbPath := recordTabs(t)

	resp := traceJSON(t, "--db", dbPath, "--engine", "tabs")
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "tabs", resp.Data.EngineID)
	assert.Equal(t, int64(1), resp.Data.Summary.FirstSeq)
	assert.Equal(t, int64(3), resp.Data.Summary.LastSeq)
	require.Len(t, resp.Data.Events, 3)
	assert.Equal(t, "INITIALIZED", resp.Data.Events[0].Type)
}

func TestTraceCommandFilters(t *testing.T) {
	dbPath := recordTabs(t)

	tests := []struct {
		name     string
		args     []string
		wantSeqs []int64
	}{
		{"type", []string{"--type", "ACTIVATED"}, []int64{2, 3}},
		{"type lowercase", []string{"--type", "initialized"}, []int64{1}},
		{"from", []string{"--from", "2"}, []int64{2, 3}},
		{"window", []string{"--from", "2", "--to", "2"}, []int64{2}},
		{"index in evicted", []string{"--index", "0"}, []int64{1, 2}},
		{"index", []string{"--index", "2"}, []int64{3}},
		{"limit", []string{"--limit", "1"}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath, "--engine", "tabs"}, tt.args...)
			resp := traceJSON(t, args...)

			seqs := make([]int64, len(resp.Data.Events))
			for i, ev := range resp.Data.Events {
				seqs[i] = ev.Seq
			}
			assert.Equal(t, tt.wantSeqs, seqs)
			// The summary always covers the whole log.
			assert.Equal(t, int64(3), resp.Data.Summary.Events)
		})
	}
}

func TestTraceCommandNoMatches(t *testing.T) {
	dbPath := recordTabs(t)

	out, err := execute(NewTraceCommand(textOpts()), "--db", dbPath, "--engine", "tabs", "--type", "SWAPPED")
	require.NoError(t, err)
	assert.Contains(t, out, "No events match the filter.")
}

func TestTraceCommandInvalidFilter(t *testing.T) {
	dbPath := recordTabs(t)

	_, err := execute(NewTraceCommand(textOpts()), "--db", dbPath, "--engine", "tabs", "--from", "3", "--to", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestTraceCommandUnknownEngine(t *testing.T) {
	dbPath := recordTabs(t)

	out, err := execute(NewTraceCommand(textOpts()), "--db", dbPath, "--engine", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No events found for engine: nope")

	resp := traceJSON(t, "--db", dbPath, "--engine", "nope")
	assert.Empty(t, resp.Data.Events)
}

func TestTraceCommandMissingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")

	_, err := execute(NewTraceCommand(textOpts()), "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTraceCommandRequiresDatabase(t *testing.T) {
	_, err := execute(NewTraceCommand(textOpts()))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
