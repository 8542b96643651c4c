package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// Process exit codes. ExitFailure means the command ran and found a
// problem (invalid preset, failed scenario, diverged replay); ExitCommandError
// means it could not run at all.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the exit code a command wants main to return.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that carry no
// ExitError count as ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or JSON. Diagnostics go to
// ErrWriter so they never interleave with a JSON document on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool

	styles *styles
}

// newFormatter builds the formatter every command writes through.
func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the envelope of every JSON result. Status is "ok" or
// "error".
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of a CLIResponse. Code is one of the E0xx CLI
// codes or an E1xx preset validation code.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data as a compact ok response, or prints it as text.
func (f *OutputFormatter) Success(data any) error {
	if f.Format != "json" {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
}

// Error writes a single error. Text mode only shows details with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "%s [%s]: %s\n", f.style().fail.Render("Error"), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// JSON writes an indented CLIResponse. Failed responses carry the first
// error in Error and the full payload in Data.
func (f *OutputFormatter) JSON(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// VerboseLog prints a diagnostic line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter, or Writer when none is set.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Pass renders the success mark followed by a message.
func (f *OutputFormatter) Pass(format string, args ...any) {
	fmt.Fprintf(f.Writer, "%s %s\n", f.style().ok.Render("✓"), fmt.Sprintf(format, args...))
}

// Fail renders the failure mark followed by a message.
func (f *OutputFormatter) Fail(format string, args ...any) {
	fmt.Fprintf(f.Writer, "%s %s\n", f.style().fail.Render("✗"), fmt.Sprintf(format, args...))
}

// Heading renders a section title.
func (f *OutputFormatter) Heading(title string) {
	fmt.Fprintln(f.Writer, f.style().title.Render(title))
}

// Muted renders secondary text.
func (f *OutputFormatter) Muted(s string) string {
	return f.style().muted.Render(s)
}

// Table writes aligned columns.
func (f *OutputFormatter) Table(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(f.Writer, 0, 0, tablePadding, ' ', tabwriter.StripEscape)
	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

const tablePadding = 2

// styles are lipgloss styles bound to the formatter's writer, so color is
// only emitted when that writer is a terminal.
type styles struct {
	ok    lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
	title lipgloss.Style
}

func (f *OutputFormatter) style() *styles {
	if f.styles == nil {
		r := lipgloss.NewRenderer(f.Writer)
		f.styles = &styles{
			ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
			fail:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			muted: r.NewStyle().Foreground(lipgloss.Color("8")),
			title: r.NewStyle().Bold(true),
		}
	}
	return f.styles
}
