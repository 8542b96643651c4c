package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/activeset/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Presets int                        `json:"presets"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <presets-dir>",
		Short: "Validate presets without producing output",
		Long: `Validate CUE activation presets without writing compiled IR.

Performs syntax checking, schema validation and preset rule checks, and
reports every problem found. Every preset is also turned into an engine
configuration, so the presets that pass are guaranteed to start.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, presetsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadPresets(presetsDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := parseLoadError(loadErrors[0])
		return outputValidateError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, presetsDir)

	validationErrors := toValidationErrors(loadErrors)
	if len(validationErrors) == 0 {
		for _, p := range loadResult.Presets {
			formatter.VerboseLog("Validating preset: %s", p.Name)
			if _, err := compiler.ConfigFromPreset(p); err != nil {
				validationErrors = append(validationErrors, compiler.ValidationError{
					Field:   "config",
					Message: err.Error(),
					Code:    ErrCodeGeneric,
					Preset:  p.Name,
				})
			}
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, len(loadResult.Presets))
}

// toValidationErrors converts loader errors to the validator's error shape.
func toValidationErrors(errs []error) []compiler.ValidationError {
	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			out = append(out, compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric})
			continue
		}
		ve := compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Preset:  loadErr.Preset,
		}
		if loadErr.Pos.IsValid() {
			ve.Field = fmt.Sprintf("%s:%d", loadErr.Pos.Filename(), loadErr.Pos.Line())
		}
		out = append(out, ve)
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, presets int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Presets: presets})
	}

	formatter.Pass("All presets valid (%d)", presets)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Unreadable input is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		if err := formatter.JSON(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	formatter.Fail("Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Preset != "" {
			fmt.Fprintf(formatter.Writer, "preset %s\n", err.Preset)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
