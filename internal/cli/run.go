package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/activeset/internal/harness"
	"github.com/roach88/activeset/internal/ir"
	"github.com/roach88/activeset/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Record bool // write events to the database
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Scenario string          `json:"scenario"`
	Database string          `json:"database,omitempty"`
	Result   *harness.Result `json:"result"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a single scenario against an engine on a virtual clock.

Prints every event the engine emitted and the final state. With --record,
the events are also written to the SQLite database given by --db (or
ACTIVESET_DB), creating it if it doesn't exist, for later trace and replay.

Example:
  activeset run ./scenarios/tabs.yaml
  activeset run --record --db ./events.db ./scenarios/carousel.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record events to the database")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := harness.Options{Logger: logger}
	var dbPath string
	if opts.Record {
		dbPath, err = opts.Database(cmd)
		if err != nil {
			return err
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts.Store = st
	}

	logger.Info("running scenario", "scenario", scenario.Name, "steps", len(scenario.Steps))
	result, err := harness.RunWithOptions(cmd.Context(), scenario, runOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if formatter.Format == "json" {
		resp := CLIResponse{
			Status: "ok",
			Data:   RunResult{Scenario: scenario.Name, Database: dbPath, Result: result},
		}
		if !result.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_SCENARIO_FAILED", Message: result.Errors[0]}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		writeRunText(formatter, scenario.Name, result, dbPath)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func writeRunText(f *OutputFormatter, name string, result *harness.Result, dbPath string) {
	f.Heading(fmt.Sprintf("Scenario %s (engine %s)", name, result.EngineID))
	_ = f.Table([]string{"SEQ", "TYPE", "VALUES", "INDEXES"}, traceRows(result.Trace))
	fmt.Fprintln(f.Writer)

	fs := result.Final
	fmt.Fprintf(f.Writer, "values:    %s\n", strings.Join(fs.Values, ", "))
	fmt.Fprintf(f.Writer, "active:    %s %s\n", strings.Join(fs.Active, ", "), f.Muted(fmt.Sprint(fs.ActiveIndexes)))
	fmt.Fprintf(f.Writer, "direction: %s\n", fs.Direction)
	if fs.Playing {
		fmt.Fprintln(f.Writer, "autoplay:  playing")
	}
	fmt.Fprintln(f.Writer)

	if dbPath != "" {
		fmt.Fprintf(f.Writer, "Recorded %d event(s) to %s\n", len(result.Trace), dbPath)
	}

	if result.Pass {
		f.Pass("%s passed", name)
		return
	}
	f.Fail("%s failed", name)
	for _, e := range result.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", e)
	}
}

// traceRows renders event records as table rows.
func traceRows(trace []ir.EventRecord) [][]string {
	rows := make([][]string, 0, len(trace))
	for _, rec := range trace {
		values := make([]string, len(rec.Values))
		for i, v := range rec.Values {
			if s, ok := v.(ir.String); ok {
				values[i] = string(s)
			} else {
				values[i] = fmt.Sprint(ir.ToAny(v))
			}
		}
		indexes := fmt.Sprint(rec.Indexes)
		if len(rec.EvictedIndexes) > 0 {
			indexes += fmt.Sprintf(" evicted %v", rec.EvictedIndexes)
		}
		rows = append(rows, []string{
			fmt.Sprint(rec.Seq),
			rec.Type,
			strings.Join(values, ", "),
			indexes,
		})
	}
	return rows
}

// newLogger returns the command logger: text to w, debug level when
// verbose, warnings only otherwise so that command output stays readable.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
