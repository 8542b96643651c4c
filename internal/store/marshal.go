package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/activeset/internal/ir"
)

// marshalValues converts an ir.Array to canonical JSON TEXT for storage.
// A nil array is stored as "[]".
func marshalValues(vs ir.Array) (string, error) {
	if vs == nil {
		vs = ir.Array{}
	}
	data, err := ir.MarshalCanonical(vs)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// marshalIndexes converts positions to canonical JSON TEXT for storage.
func marshalIndexes(is []int64) (string, error) {
	arr := make(ir.Array, len(is))
	for i, n := range is {
		arr[i] = ir.Int(n)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal indexes: %w", err)
	}
	return string(data), nil
}

// unmarshalValues parses canonical JSON TEXT to ir.Array.
// ir.Array.UnmarshalJSON keeps integers exact beyond 2^53.
func unmarshalValues(data string) (ir.Array, error) {
	if data == "" || data == "[]" {
		return ir.Array{}, nil
	}
	var arr ir.Array
	if err := json.Unmarshal([]byte(data), &arr); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return arr, nil
}

// unmarshalIndexes parses a JSON array of integers.
func unmarshalIndexes(data string) ([]int64, error) {
	if data == "" || data == "[]" {
		return []int64{}, nil
	}
	var is []int64
	if err := json.Unmarshal([]byte(data), &is); err != nil {
		return nil, fmt.Errorf("unmarshal indexes: %w", err)
	}
	return is, nil
}
