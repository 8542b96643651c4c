package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/activeset/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledPreset is a preset with its content hash.
type CompiledPreset struct {
	Hash   string        `json:"hash"`
	Preset ir.PresetSpec `json:"preset"`
}

// CompilationResult holds the compiled presets.
type CompilationResult struct {
	IRVersion string           `json:"ir_version"`
	Presets   []CompiledPreset `json:"presets"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <presets-dir>",
		Short: "Compile CUE presets to canonical IR",
		Long: `Compile CUE activation presets to canonical IR format.

The compiler parses CUE files, checks every preset against the preset
schema and validation rules, and outputs the presets as JSON together
with a content hash of each.

Example:
  activeset compile ./presets
  activeset compile ./presets -o presets.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, presetsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadPresets(presetsDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := parseLoadError(loadErrors[0])
		return outputCompileError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, presetsDir)
	for _, p := range loadResult.Presets {
		formatter.VerboseLog("Compiling preset: %s", p.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result, err := buildCompilationResult(loadResult.Presets)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// buildCompilationResult hashes each preset.
func buildCompilationResult(presets []ir.PresetSpec) (*CompilationResult, error) {
	result := &CompilationResult{
		IRVersion: ir.IRVersion,
		Presets:   make([]CompiledPreset, 0, len(presets)),
	}
	for _, p := range presets {
		hash, err := ir.PresetHash(p)
		if err != nil {
			return nil, fmt.Errorf("hashing preset %s: %w", p.Name, err)
		}
		result.Presets = append(result.Presets, CompiledPreset{Hash: hash, Preset: p})
	}
	return result, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	formatter.Pass("Compiled %d preset(s)", len(result.Presets))
	fmt.Fprintln(formatter.Writer)

	rows := make([][]string, 0, len(result.Presets))
	for _, cp := range result.Presets {
		rows = append(rows, []string{cp.Preset.Name, describePreset(cp.Preset), shortHash(cp.Hash)})
	}
	if err := formatter.Table([]string{"PRESET", "BEHAVIOR", "HASH"}, rows); err != nil {
		return err
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote canonical IR to %s\n", outputFile)
	}

	return nil
}

// describePreset summarizes a preset's behavior on one line, e.g.
// "3 contents, limit 1 (circular), circular, autoplay 5s".
func describePreset(p ir.PresetSpec) string {
	limit := "limit 1"
	switch {
	case p.MaxActivationLimit < 0:
		limit = "unlimited"
	case p.MaxActivationLimit > 0:
		limit = fmt.Sprintf("limit %d", p.MaxActivationLimit)
	}
	if p.MaxActivationLimit >= 0 {
		behavior := p.LimitBehavior
		if behavior == "" {
			behavior = "circular"
		}
		limit += " (" + behavior + ")"
	}

	parts := []string{fmt.Sprintf("%d contents", len(p.Contents)), limit}
	if p.Circular {
		parts = append(parts, "circular")
	}
	if p.Cooldown != "" {
		parts = append(parts, "cooldown "+p.Cooldown)
	}
	if p.Autoplay != nil {
		parts = append(parts, "autoplay "+p.Autoplay.Duration)
	}
	return strings.Join(parts, ", ")
}

func shortHash(h string) string {
	if _, rest, ok := strings.Cut(h, ":"); ok {
		h = rest
	}
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		if err := formatter.JSON(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}); err != nil {
			return err
		}

		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	formatter.Fail("Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Preset != "" {
			return loadErr.Code, fmt.Sprintf("preset %s: %s", loadErr.Preset, loadErr.Message)
		}
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeIRToFile writes the compilation result to a file.
func writeIRToFile(result *CompilationResult, filename string) error {
	// Indented for readability; canonical JSON is only used for hashing.
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
