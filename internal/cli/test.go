package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/activeset/internal/harness"
	"github.com/roach88/activeset/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	GoldenDir string // directory of {scenario}.golden snapshots
	Update    bool   // regenerate golden files
	Record    bool   // record every scenario's events to the database
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance harness",
		Long: `Run conformance scenarios using the harness framework.

Executes every scenario file in the directory on a virtual clock, checking
engine invariants after each step and the trace and final state assertions
at the end. With --golden, each trace is also compared against its
{scenario}.golden snapshot.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  activeset test ./scenarios
  activeset test ./scenarios --golden ./scenarios/golden
  activeset test ./scenarios --golden ./scenarios/golden --update
  activeset test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden snapshot directory")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record events to the database")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	suiteOpts := harness.SuiteOptions{
		Run:       harness.Options{Logger: logger},
		GoldenDir: opts.GoldenDir,
		Update:    opts.Update,
	}

	if opts.Record {
		dbPath, err := opts.Database(cmd)
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
		suiteOpts.Run.Store = st
	}

	result, err := harness.RunDir(cmd.Context(), scenariosDir, suiteOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, scenariosDir, result)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(f *OutputFormatter, result *harness.SuiteResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.Pass() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := f.JSON(response); err != nil {
		return err
	}

	if !result.Pass() {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(f *OutputFormatter, dir string, result *harness.SuiteResult) error {
	if result.Total == 0 {
		fmt.Fprintf(f.Writer, "No scenarios found in %s.\n", dir)
		return nil
	}

	failed := make(map[string]harness.SuiteFailure, len(result.Failures))
	for _, fl := range result.Failures {
		failed[fl.ScenarioPath] = fl
	}

	// Failures only name the scenarios that failed; rediscover the rest so
	// every scenario gets a line.
	paths, err := harness.DiscoverScenarios(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list scenarios", err)
	}
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fl, ok := failed[path]
		if !ok {
			f.Pass("%s", name)
			continue
		}
		f.Fail("%s", name)
		for _, e := range fl.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(f.Writer, "  %s\n", line)
			}
		}
	}

	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Updated > 0 {
		fmt.Fprintf(f.Writer, "Updated %d golden file(s)\n", result.Updated)
	}

	if !result.Pass() {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	f.Pass("All scenarios passed")
	return nil
}
