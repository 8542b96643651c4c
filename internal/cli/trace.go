package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/activeset/internal/ir"
	"github.com/roach88/activeset/internal/queryir"
	"github.com/roach88/activeset/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	EngineID string
	Types    []string // optional - filter to event types
	FromSeq  int64
	ToSeq    int64
	Index    int64 // -1 = any
	Limit    int
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	EngineID string           `json:"engine_id"`
	Summary  ir.EngineSummary `json:"summary"`
	Events   []ir.EventRecord `json:"events"`
}

// EngineList is the trace output when no engine is selected.
type EngineList struct {
	Engines []ir.EngineSummary `json:"engines"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query the recorded event log",
		Long: `Query the events recorded for an engine.

Without --engine, lists every engine in the database with its event
count and seq range. With --engine, prints the engine's timeline,
optionally filtered by event type, seq window and content index.

The output includes:
- Summary: event counts per type and the seq range
- Events: the matching events in seq order

Examples:
  activeset trace --db ./events.db
  activeset trace --db ./events.db --engine carousel
  activeset trace --db ./events.db --engine carousel --type ACTIVATED --from 10
  activeset trace --db ./events.db --engine tabs --index 2 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.EngineID, "engine", "", "engine ID to trace")
	cmd.Flags().StringSliceVar(&opts.Types, "type", nil, "filter to event types (repeatable)")
	cmd.Flags().Int64Var(&opts.FromSeq, "from", 0, "first seq (inclusive)")
	cmd.Flags().Int64Var(&opts.ToSeq, "to", 0, "last seq (inclusive, 0 = end)")
	cmd.Flags().Int64Var(&opts.Index, "index", -1, "only events touching this content index")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum events (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	st, err := openExistingStore(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.EngineID == "" {
		return listEngines(formatter, st, cmd)
	}

	filter, err := opts.filter()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	summary, err := st.EngineSummary(ctx, opts.EngineID)
	if errors.Is(err, store.ErrUnknownEngine) {
		if opts.Format == "json" {
			return formatter.Success(TraceResult{
				EngineID: opts.EngineID,
				Events:   []ir.EventRecord{},
			})
		}
		fmt.Fprintf(formatter.Writer, "No events found for engine: %s\n", opts.EngineID)
		return nil
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize engine", err)
	}

	events, err := st.QueryEvents(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query events", err)
	}

	result := TraceResult{EngineID: opts.EngineID, Summary: summary, Events: events}
	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(formatter, result)
}

// filter builds the event query from the flags.
func (o *TraceOptions) filter() (queryir.Filter, error) {
	f := queryir.Filter{
		EngineID: o.EngineID,
		Types:    o.Types,
		FromSeq:  o.FromSeq,
		ToSeq:    o.ToSeq,
		Limit:    o.Limit,
	}
	if o.Index >= 0 {
		idx := o.Index
		f.Index = &idx
	}
	for i, t := range f.Types {
		f.Types[i] = strings.ToUpper(t)
	}
	return f, f.Validate()
}

// openExistingStore opens the configured database, refusing to create one.
func openExistingStore(opts *RootOptions, cmd *cobra.Command) (*store.Store, error) {
	path, err := opts.Database(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func listEngines(f *OutputFormatter, st *store.Store, cmd *cobra.Command) error {
	ctx := cmd.Context()
	ids, err := st.ListEngines(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list engines", err)
	}

	list := EngineList{Engines: make([]ir.EngineSummary, 0, len(ids))}
	for _, id := range ids {
		summary, err := st.EngineSummary(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to summarize engine", err)
		}
		list.Engines = append(list.Engines, summary)
	}

	if f.Format == "json" {
		return f.JSON(CLIResponse{Status: "ok", Data: list})
	}

	if len(list.Engines) == 0 {
		fmt.Fprintln(f.Writer, "No engines recorded.")
		return nil
	}
	rows := make([][]string, 0, len(list.Engines))
	for _, s := range list.Engines {
		rows = append(rows, []string{
			s.EngineID,
			fmt.Sprint(s.Events),
			fmt.Sprintf("%d-%d", s.FirstSeq, s.LastSeq),
		})
	}
	return f.Table([]string{"ENGINE", "EVENTS", "SEQ"}, rows)
}

func outputTraceText(f *OutputFormatter, result TraceResult) error {
	s := result.Summary
	f.Heading(fmt.Sprintf("Engine %s", result.EngineID))
	fmt.Fprintf(f.Writer, "%d event(s), seq %d-%d\n", s.Events, s.FirstSeq, s.LastSeq)

	types := make([]string, 0, len(s.CountsByType))
	for t := range s.CountsByType {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		fmt.Fprintf(f.Writer, "  %-20s %d\n", t, s.CountsByType[t])
	}
	fmt.Fprintln(f.Writer)

	if len(result.Events) == 0 {
		fmt.Fprintln(f.Writer, "No events match the filter.")
		return nil
	}
	return f.Table([]string{"SEQ", "TYPE", "VALUES", "INDEXES"}, traceRows(result.Events))
}
