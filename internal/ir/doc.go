// Package ir provides the type-erased representation of engine data.
//
// The engine is generic over its value type; everything that leaves the
// process (the sqlite event log, golden traces, CLI JSON output, compiled
// presets) goes through the types in this package instead. All other
// internal packages may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - All JSON tags use snake_case
//   - Event identity is a content hash over canonical JSON, never over
//     wall-clock time
package ir
