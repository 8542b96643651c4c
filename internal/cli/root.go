package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/activeset/internal/ir"
)

// EnvPrefix prefixes the environment variables that set global flags,
// e.g. ACTIVESET_FORMAT=json or ACTIVESET_DB=./events.db.
const EnvPrefix = "ACTIVESET"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Config layers flags over environment variables over the config file.
	// Commands read shared settings such as "db" through it.
	Config *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the activeset CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: viper.New()}

	cmd := &cobra.Command{
		Use:   "activeset",
		Short: "activeset - activation engine for tabs and carousels",
		Long: `Compile activation presets, run them, and inspect their event logs.

A preset is a CUE description of an activation engine: its contents, how
many may be active at once, cooldown and autoplay. Engines emit an event
for every change; the run and test commands can record those events to
SQLite for trace and replay.

Global flags can also be set with ACTIVESET_* environment variables or a
YAML config file passed with --config.`,
		Version:       fmt.Sprintf("%s (ir %s)", ir.EngineVersion, ir.IRVersion),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (YAML)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// load resolves global settings from flags, environment and config file,
// in that order of precedence, and validates them.
func (o *RootOptions) load(cmd *cobra.Command) error {
	v := o.Config
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("db", "")
	v.SetDefault("format", "text")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return WrapExitError(ExitCommandError, "binding flags", err)
	}

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("reading config %s", o.ConfigFile), err)
		}
	}

	o.Verbose = v.GetBool("verbose")
	o.Format = v.GetString("format")
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	return nil
}

// Database returns the database path: the command's --db flag, else
// ACTIVESET_DB, else "db" in the config file.
func (o *RootOptions) Database(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" && o.Config != nil {
		path = o.Config.GetString("db")
	}
	if path == "" {
		return "", NewExitError(ExitCommandError, "no database: pass --db or set "+EnvPrefix+"_DB")
	}
	return path, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
