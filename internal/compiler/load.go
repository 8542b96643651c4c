package compiler

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/activeset/internal/ir"
)

// BuildDir loads the CUE package in dir and builds it into a single value.
func BuildDir(dir string) (cue.Value, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// CompilePresets compiles every field of the top-level "preset" struct.
// All compile errors are collected; presets that compiled are returned
// sorted by name.
func CompilePresets(root cue.Value) ([]ir.PresetSpec, []error) {
	presetsVal := root.LookupPath(cue.ParsePath("preset"))
	if !presetsVal.Exists() {
		return nil, nil
	}

	iter, err := presetsVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var (
		specs []ir.PresetSpec
		errs  []error
	)
	for iter.Next() {
		spec, err := CompilePreset(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, *spec)
	}

	slices.SortFunc(specs, func(a, b ir.PresetSpec) int {
		return strings.Compare(a.Name, b.Name)
	})
	return specs, errs
}

// CompileString compiles presets from CUE source text. filename is used in
// error positions only.
func CompileString(src, filename string) ([]ir.PresetSpec, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileAndValidate(v)
}

// LoadDir builds, compiles and validates every preset in dir. It fails on
// the first compile error and on any validation error.
func LoadDir(dir string) ([]ir.PresetSpec, error) {
	v, err := BuildDir(dir)
	if err != nil {
		return nil, err
	}
	return compileAndValidate(v)
}

func compileAndValidate(v cue.Value) ([]ir.PresetSpec, error) {
	specs, errs := CompilePresets(v)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if verrs := ValidatePresets(specs); len(verrs) > 0 {
		return nil, verrs[0]
	}
	return specs, nil
}

// Find returns the preset called name.
func Find(specs []ir.PresetSpec, name string) (ir.PresetSpec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return ir.PresetSpec{}, false
}
