package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/activeset/internal/compiler"
	"github.com/roach88/activeset/internal/engine"
	"github.com/roach88/activeset/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	For      time.Duration // how long to play, 0 = until interrupted
	Autoplay time.Duration // overrides the preset's autoplay duration
	Record   bool

	// Clock and Advance replace real time (for testing). When Advance is
	// set, play advances the clock by For instead of waiting.
	Clock   engine.Clock
	Advance func(time.Duration)

	// IDGenerator overrides the engine ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	return newPlayCommand(&PlayOptions{RootOptions: rootOpts})
}

// newPlayCommand builds the command around opts. Flag defaults are taken
// from opts, so a preset clock or duration survives flag registration.
func newPlayCommand(opts *PlayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <presets-dir> <preset>",
		Short: "Autoplay a preset in real time",
		Long: `Start an engine from a preset and let autoplay advance it in real time.

Every event is printed as it happens. The engine plays until --for has
elapsed or it is interrupted; a linear carousel also stops at its last
content. With --record, events are written to the database given by --db
(or ACTIVESET_DB).

Example:
  activeset play ./presets carousel --for 30s
  activeset play ./presets tabs --autoplay 2s --record --db ./events.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database")
	cmd.Flags().DurationVar(&opts.For, "for", opts.For, "stop after this long (0 = until interrupted)")
	cmd.Flags().DurationVar(&opts.Autoplay, "autoplay", opts.Autoplay, "autoplay duration, overriding the preset")
	cmd.Flags().BoolVar(&opts.Record, "record", opts.Record, "record events to the database")

	return cmd
}

func runPlay(opts *PlayOptions, presetsDir, name string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	presets, err := compiler.LoadDir(presetsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load presets", err)
	}
	preset, ok := compiler.Find(presets, name)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: preset %q not found in %s", ErrCodeNoPreset, name, presetsDir))
	}
	cfg, err := compiler.ConfigFromPreset(preset)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid preset", err)
	}

	if opts.Autoplay > 0 {
		stops := cfg.Autoplay != nil && cfg.Autoplay.StopsOnUserInteraction
		cfg.Autoplay = &engine.AutoplayConfig[string]{Duration: opts.Autoplay, StopsOnUserInteraction: stops}
	}
	if cfg.Autoplay == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("preset %s has no autoplay; pass --autoplay", name))
	}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.Clock))
	}
	if opts.IDGenerator != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(opts.IDGenerator))
	}

	// Subscribers are attached before Initialize so that they see INITIALIZED
	// and the first autoplay timer cannot fire before anyone listens.
	activeConfig := cfg
	cfg.Autoplay = nil
	e, err := engine.New(cfg, engineOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	printer := &eventPrinter{formatter: formatter}
	unsubscribe := e.Subscribe(printer.print)
	defer unsubscribe()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

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
		// Subscribe rather than Attach: the INITIALIZED from New carries no
		// autoplay and is not part of the played log.
		recorder := store.NewRecorder[string](ctx, st, logger)
		detach := e.Subscribe(recorder.Record)
		defer func() {
			detach()
			if err := recorder.Err(); err != nil {
				logger.Error("recording failed", "error", err)
			}
			logger.Info("events recorded", "db", dbPath, "events", recorder.Written())
		}()
	}

	if err := e.Initialize(activeConfig); err != nil {
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}
	logger.Info("playing", "preset", name, "engine", e.ID(), "autoplay", activeConfig.Autoplay.Duration)

	if opts.Advance != nil {
		opts.Advance(opts.For)
	} else {
		waitForStop(ctx, opts.For, logger.Info)
	}

	e.Stop()
	printer.done(e)
	return nil
}

// waitForStop blocks until d has elapsed (forever when d is 0), ctx is
// cancelled, or the process is interrupted.
func waitForStop(ctx context.Context, d time.Duration, logf func(msg string, args ...any)) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	var timeout <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case sig := <-sigChan:
		logf("received signal, stopping", "signal", sig)
	case <-timeout:
	case <-ctx.Done():
	}
}

// eventPrinter writes one line per event. Timer callbacks emit from their
// own goroutine, so writes are serialized.
type eventPrinter struct {
	mu        sync.Mutex
	formatter *OutputFormatter
	count     int
}

func (p *eventPrinter) print(_ *engine.Engine[string], ev engine.Event[string]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	w := p.formatter.Writer
	if p.formatter.Format == "json" {
		// One object per line so the stream can be piped into jq.
		_ = json.NewEncoder(w).Encode(playedEvent{
			Seq:     ev.Seq,
			Type:    string(ev.Type),
			Time:    ev.Time,
			Values:  nonNil(ev.Values),
			Indexes: nonNil(ev.Indexes),
		})
		return
	}
	fmt.Fprintf(w, "%s %4d %-20s %s %s\n",
		p.formatter.Muted(ev.Time.Format("15:04:05.000")),
		ev.Seq, ev.Type, strings.Join(ev.Values, ", "), p.formatter.Muted(formatInts(ev.Indexes)))
}

func (p *eventPrinter) done(e *engine.Engine[string]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.formatter.Format == "json" {
		return
	}
	p.formatter.Pass("Played %d event(s); active: %s", p.count, strings.Join(e.Active(), ", "))
}

// playedEvent is the JSON line written per event.
type playedEvent struct {
	Seq     int64     `json:"seq"`
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Values  []string  `json:"values"`
	Indexes []int     `json:"indexes"`
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}

func formatInts(is []int) string {
	parts := make([]string, len(is))
	for i, v := range is {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
