package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/activeset/internal/compiler"
	"github.com/roach88/activeset/internal/ir"
)

// LoadMode controls how errors are handled during preset loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading presets from a directory.
type LoadResult struct {
	Presets   []ir.PresetSpec
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during preset loading.
type LoadError struct {
	Code    string
	Message string
	Preset  string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Preset != "" {
		msg = fmt.Sprintf("preset %s: %s", e.Preset, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// LoadPresets loads, compiles and validates the CUE presets in a directory.
//
// A nil result means the directory could not be read or built at all. A
// non-nil result with errors holds the presets that compiled; in
// LoadModeFailFast only the first compile or validation error is returned.
func LoadPresets(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("presets directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing presets directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, err := compiler.BuildDir(dir)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeBuildFailed)}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	var errs []error
	presets, compileErrs := compiler.CompilePresets(value)
	for _, ce := range compileErrs {
		errs = append(errs, convertCompileError(ce, ErrCodeGeneric))
		if mode == LoadModeFailFast {
			return result, errs
		}
	}
	result.Presets = presets

	for _, ve := range compiler.ValidatePresets(presets) {
		errs = append(errs, &LoadError{
			Code:    ve.Code,
			Message: fmt.Sprintf("%s: %s", ve.Field, ve.Message),
			Preset:  ve.Preset,
		})
		if mode == LoadModeFailFast {
			return result, errs
		}
	}

	if len(result.Presets) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no presets found"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position
// info. fallback is the code used for errors the compiler did not classify.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := MapFieldToErrorCode(compileErr.Field)
		if code == ErrCodeGeneric {
			code = fallback
		}
		return &LoadError{
			Code:    code,
			Message: compileErr.Message,
			Preset:  presetOfField(compileErr.Field),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    fallback,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeSchema      = "E008" // Field does not match the preset schema
	ErrCodeNoPreset    = "E009" // Named preset not in the directory

	// Preset validation errors share the compiler's codes (E101-E111).
)

// MapFieldToErrorCode maps a compiler error field to an error code.
//
// Compile errors carry CUE paths such as "preset.tabs.cooldown"; the path
// inside the preset decides the code. Fields the validator has no code for
// are schema errors.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "", "cue":
		return ErrCodeGeneric
	case "name":
		return compiler.ErrPresetNameEmpty
	}
	rest, ok := strings.CutPrefix(field, "preset.")
	if !ok {
		return ErrCodeSchema
	}
	_, inner, ok := strings.Cut(rest, ".")
	if !ok {
		return ErrCodeSchema
	}
	if code := compiler.CodeForField(inner); code != compiler.ErrUnsupportedIRType {
		return code
	}
	return ErrCodeSchema
}

// presetOfField returns the preset name in a "preset.<name>..." path.
func presetOfField(field string) string {
	rest, ok := strings.CutPrefix(field, "preset.")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, ".")
	return name
}
