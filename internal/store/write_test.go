package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/activeset/internal/ir"
)

func TestWriteEvent_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestEvent("tabs", 2, "inbox", 1)
	require.NoError(t, s.WriteEvent(ctx, rec))

	got, err := s.ReadEvent(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestWriteEvent_CanonicalJSON(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := ir.EventRecord{
		EngineID: "tabs",
		Seq:      1,
		Type:     "INITIALIZED",
		Values:   ir.Array{ir.Object{"label": ir.String("Inbox"), "id": ir.Int(7)}},
		Indexes:  []int64{0},
	}
	require.NoError(t, s.WriteEvent(ctx, rec))

	var valuesJSON, evictedJSON string
	err := s.db.QueryRow(`SELECT values_json, evicted_values_json FROM events WHERE engine_id = 'tabs'`).
		Scan(&valuesJSON, &evictedJSON)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":7,"label":"Inbox"}]`, valuesJSON)
	assert.Equal(t, "[]", evictedJSON)
}

func TestWriteEvent_AssignsID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestEvent("tabs", 2, "inbox", 1)
	want := rec.ID
	rec.ID = ""

	require.NoError(t, s.WriteEvent(ctx, rec))

	got, err := s.ReadEvent(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, want, got.ID)
}

func TestWriteEvent_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestEvent("tabs", 2, "inbox", 1)
	require.NoError(t, s.WriteEvent(ctx, rec))
	require.NoError(t, s.WriteEvent(ctx, rec))

	events, err := s.ReadEvents(ctx, "tabs")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestWriteEvent_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  ir.EventRecord
		want string
	}{
		{"no engine", ir.EventRecord{Seq: 1, Type: "ACTIVATED"}, "engine id"},
		{"no type", ir.EventRecord{EngineID: "tabs", Seq: 1}, "event type"},
		{"null value", ir.EventRecord{EngineID: "tabs", Seq: 1, Type: "ACTIVATED", Values: ir.Array{ir.Null{}}}, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.WriteEvent(ctx, tt.rec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "write event")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteEvents_Transaction(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	good := []ir.EventRecord{
		createTestEvent("tabs", 1, "home", 0),
		createTestEvent("tabs", 2, "inbox", 1),
	}
	require.NoError(t, s.WriteEvents(ctx, good))

	bad := []ir.EventRecord{
		createTestEvent("tabs", 3, "sent", 2),
		{EngineID: "tabs", Seq: 4},
	}
	err := s.WriteEvents(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")

	events, err := s.ReadEvents(ctx, "tabs")
	require.NoError(t, err)
	assert.Len(t, events, 2, "failed batch is rolled back")
}

func TestWriteEvent_EvictedRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := ir.EventRecord{
		EngineID:       "carousel",
		Seq:            5,
		Type:           "ACTIVATED",
		Values:         ir.Array{ir.String("c")},
		Indexes:        []int64{2},
		EvictedValues:  ir.Array{ir.String("a")},
		EvictedIndexes: []int64{0},
	}
	rec.ID = ir.MustEventID(rec)
	require.NoError(t, s.WriteEvent(ctx, rec))

	got, err := s.ReadEvent(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, ir.Array{ir.String("a")}, got.EvictedValues)
	assert.Equal(t, []int64{0}, got.EvictedIndexes)
	assert.Equal(t, rec.ID, ir.MustEventID(got), "ID survives the round trip")
}
