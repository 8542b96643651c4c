package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/activeset/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates an ACTIVATED record for value at index with its
// content-addressed ID.
func createTestEvent(engineID string, seq int64, value string, index int64) ir.EventRecord {
	rec := ir.EventRecord{
		EngineID:     engineID,
		Seq:          seq,
		Type:         "ACTIVATED",
		TimeUnixNano: seq * 1000,
		Values:       ir.Array{ir.String(value)},
		Indexes:      []int64{index},
	}
	rec.ID = ir.MustEventID(rec)
	return rec
}
