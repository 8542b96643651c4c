package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// SuiteOptions configures RunDir.
type SuiteOptions struct {
	// Run is passed to every scenario run.
	Run Options

	// GoldenDir, when set, holds one {name}.golden snapshot per scenario.
	// Each result is compared against its snapshot.
	GoldenDir string

	// Update rewrites the golden snapshots instead of comparing them.
	Update bool
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Updated  int            `json:"updated,omitempty"`
	Failures []SuiteFailure `json:"failures,omitempty"`
}

// SuiteFailure is one failed scenario of a suite.
type SuiteFailure struct {
	ScenarioPath string   `json:"scenario_path"`
	Scenario     string   `json:"scenario,omitempty"`
	Errors       []string `json:"errors"`
}

// Pass reports whether every scenario passed.
func (r *SuiteResult) Pass() bool {
	return r.Failed == 0
}

// DiscoverScenarios returns the scenario files directly under dir, sorted
// by name.
func DiscoverScenarios(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return paths, nil
}

// RunDir runs every scenario in dir and collects the results.
//
// For each scenario file:
//  1. Load and validate the scenario
//  2. Run it via RunWithOptions
//  3. Compare or update its golden snapshot when GoldenDir is set
//
// A scenario that fails to load counts as failed; the suite keeps going.
func RunDir(ctx context.Context, dir string, opts SuiteOptions) (*SuiteResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scenario dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scenario dir is not a directory: %s", dir)
	}

	paths, err := DiscoverScenarios(dir)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{}
	for _, path := range paths {
		result.Total++

		failure := SuiteFailure{ScenarioPath: path}
		fail := func(errs ...string) {
			failure.Errors = append(failure.Errors, errs...)
		}

		scenario, err := LoadScenario(path)
		if err != nil {
			fail(fmt.Sprintf("failed to load scenario: %v", err))
		} else {
			failure.Scenario = scenario.Name
			runResult, err := RunWithOptions(ctx, scenario, opts.Run)
			switch {
			case err != nil:
				fail(fmt.Sprintf("scenario execution failed: %v", err))
			default:
				if !runResult.Pass {
					fail(runResult.Errors...)
				}
				updated, err := checkGolden(opts, scenario.Name, runResult)
				if err != nil {
					fail(err.Error())
				}
				if updated {
					result.Updated++
				}
			}
		}

		if len(failure.Errors) > 0 {
			result.Failed++
			result.Failures = append(result.Failures, failure)
			continue
		}
		result.Passed++
	}

	return result, nil
}

// checkGolden compares a result with its snapshot file, or rewrites the
// file in update mode. It reports whether the file was written.
func checkGolden(opts SuiteOptions, name string, result *Result) (bool, error) {
	if opts.GoldenDir == "" {
		return false, nil
	}

	got, err := Snapshot(name, result)
	if err != nil {
		return false, fmt.Errorf("golden snapshot: %w", err)
	}
	path := filepath.Join(opts.GoldenDir, name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return false, fmt.Errorf("golden dir: %w", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			return false, fmt.Errorf("write golden: %w", err)
		}
		return true, nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read golden: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), bytes.TrimSpace(got)) {
		return false, fmt.Errorf("golden mismatch for %s: run with --update to accept the new trace", name)
	}
	return false, nil
}
