package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/activeset/internal/ir"
)

func TestMarshalValues(t *testing.T) {
	tests := []struct {
		name string
		in   ir.Array
		want string
	}{
		{"nil", nil, "[]"},
		{"empty", ir.Array{}, "[]"},
		{"strings", ir.Array{ir.String("a"), ir.String("b")}, `["a","b"]`},
		{"mixed", ir.Array{ir.Int(1), ir.Bool(true), ir.String("x")}, `[1,true,"x"]`},
		{"object keys sorted", ir.Array{ir.Object{"z": ir.Int(1), "a": ir.Int(2)}}, `[{"a":2,"z":1}]`},
		{"nfc", ir.Array{ir.String("e\u0301")}, "[\"\u00e9\"]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := marshalValues(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarshalValues_RejectsNull(t *testing.T) {
	_, err := marshalValues(ir.Array{ir.Null{}})
	assert.Error(t, err)
}

func TestMarshalIndexes(t *testing.T) {
	got, err := marshalIndexes(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	got, err = marshalIndexes([]int64{3, 0, 9007199254740993})
	require.NoError(t, err)
	assert.Equal(t, "[3,0,9007199254740993]", got)
}

func TestUnmarshalValues(t *testing.T) {
	got, err := unmarshalValues("")
	require.NoError(t, err)
	assert.Equal(t, ir.Array{}, got)

	got, err = unmarshalValues(`["inbox",9007199254740993]`)
	require.NoError(t, err)
	assert.Equal(t, ir.Array{ir.String("inbox"), ir.Int(9007199254740993)}, got)

	_, err = unmarshalValues(`{"not":"an array"}`)
	assert.Error(t, err)

	_, err = unmarshalValues(`[1.5]`)
	assert.Error(t, err, "floats are rejected")
}

func TestUnmarshalIndexes(t *testing.T) {
	got, err := unmarshalIndexes("[]")
	require.NoError(t, err)
	assert.Equal(t, []int64{}, got)

	got, err = unmarshalIndexes("[2,0]")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 0}, got)

	_, err = unmarshalIndexes(`["x"]`)
	assert.Error(t, err)
}
