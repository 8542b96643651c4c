package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/activeset/internal/compiler"
	"github.com/roach88/activeset/internal/harness"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	PresetsDir string
	Preset     string
	EngineID   string // optional - specific engine only
}

// ReplayEngineResult holds the replay result for a single engine.
type ReplayEngineResult struct {
	EngineID      string   `json:"engine_id"`
	Events        int      `json:"events"`
	Replayed      int      `json:"replayed"`
	Deterministic bool     `json:"deterministic"`
	Mismatches    []string `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Engines          []ReplayEngineResult `json:"engines"`
	TotalEngines     int                  `json:"total_engines"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay event log and verify determinism",
		Long: `Replay recorded event logs against fresh engines and verify that every
event is reproduced.

Contents and active positions come from the log itself; the preset
supplies what the log cannot carry: the activation limit and its behavior,
circularity and direction labels. Replay stops at the first event that
does not reproduce.

Exit codes:
  0 - All engines replayed identically
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  activeset replay --db ./events.db --presets ./presets --preset carousel
  activeset replay --db ./events.db --presets ./presets --preset tabs --engine tabs
  activeset replay --db ./events.db --presets ./presets --preset tabs --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.PresetsDir, "presets", "", "presets directory (required)")
	_ = cmd.MarkFlagRequired("presets")
	cmd.Flags().StringVar(&opts.Preset, "preset", "", "preset the engines were created from (required)")
	_ = cmd.MarkFlagRequired("preset")
	cmd.Flags().StringVar(&opts.EngineID, "engine", "", "replay specific engine only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	presets, err := compiler.LoadDir(opts.PresetsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load presets", err)
	}
	preset, ok := compiler.Find(presets, opts.Preset)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: preset %q not found in %s", ErrCodeNoPreset, opts.Preset, opts.PresetsDir))
	}
	cfg, err := compiler.ConfigFromPreset(preset)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid preset", err)
	}

	st, err := openExistingStore(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	var engineIDs []string
	if opts.EngineID != "" {
		engineIDs = []string{opts.EngineID}
	} else {
		engineIDs, err = st.ListEngines(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list engines", err)
		}
	}

	result := ReplayResult{
		Engines:          make([]ReplayEngineResult, 0, len(engineIDs)),
		TotalEngines:     len(engineIDs),
		AllDeterministic: true,
	}

	for _, id := range engineIDs {
		records, err := st.ReadEvents(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read engine %s", id), err)
		}
		if len(records) == 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("no events found for engine: %s", id))
		}

		formatter.VerboseLog("Replaying %d event(s) for engine %s", len(records), id)
		replayed, err := harness.Replay(cfg, records)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay engine %s", id), err)
		}

		er := ReplayEngineResult{
			EngineID:      id,
			Events:        len(records),
			Replayed:      replayed.Replayed,
			Deterministic: replayed.Pass(),
			Mismatches:    replayed.Mismatches,
		}
		if !er.Deterministic {
			result.AllDeterministic = false
		}
		result.Engines = append(result.Engines, er)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.AllDeterministic {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_NONDETERMINISTIC", Message: "replay diverged from the recorded log"}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay diverged from the recorded log")
	}
	return nil
}

func outputReplayText(f *OutputFormatter, result ReplayResult) {
	if result.TotalEngines == 0 {
		fmt.Fprintln(f.Writer, "No engines found in database.")
		return
	}

	for _, er := range result.Engines {
		if er.Deterministic {
			f.Pass("%s: %d/%d event(s) reproduced", er.EngineID, er.Replayed, er.Events)
			continue
		}
		f.Fail("%s: %d/%d event(s) reproduced", er.EngineID, er.Replayed, er.Events)
		for _, m := range er.Mismatches {
			fmt.Fprintf(f.Writer, "  %s\n", m)
		}
	}

	fmt.Fprintln(f.Writer)
	if result.AllDeterministic {
		f.Pass("All %d engine(s) replayed deterministically", result.TotalEngines)
		return
	}
	f.Fail("Replay diverged")
}
