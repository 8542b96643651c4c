package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/activeset/internal/ir"
	"github.com/roach88/activeset/internal/queryir"
)

// seedLog writes a small two-engine log:
//
//	tabs:     1 INITIALIZED, 2 ACTIVATED inbox@1, 3 DEACTIVATED inbox@1, 4 ACTIVATED sent@2
//	carousel: 1 INITIALIZED, 2 ACTIVATED b@1 evicting a@0
func seedLog(t *testing.T, s *Store) {
	t.Helper()

	initTabs := ir.EventRecord{
		EngineID: "tabs", Seq: 1, Type: "INITIALIZED",
		Values:  ir.Array{ir.String("home"), ir.String("inbox"), ir.String("sent")},
		Indexes: []int64{0},
	}
	deactivated := createTestEvent("tabs", 3, "inbox", 1)
	deactivated.Type = "DEACTIVATED"
	initCarousel := ir.EventRecord{
		EngineID: "carousel", Seq: 1, Type: "INITIALIZED",
		Values:  ir.Array{ir.String("a"), ir.String("b")},
		Indexes: []int64{0},
	}
	evicting := ir.EventRecord{
		EngineID: "carousel", Seq: 2, Type: "ACTIVATED",
		Values: ir.Array{ir.String("b")}, Indexes: []int64{1},
		EvictedValues: ir.Array{ir.String("a")}, EvictedIndexes: []int64{0},
	}

	// Written out of order on purpose.
	recs := []ir.EventRecord{
		createTestEvent("tabs", 4, "sent", 2),
		evicting,
		initTabs,
		deactivated,
		createTestEvent("tabs", 2, "inbox", 1),
		initCarousel,
	}
	for _, rec := range recs {
		require.NoError(t, s.WriteEvent(context.Background(), rec))
	}
}

func seqsOf(events []ir.EventRecord) []int64 {
	out := make([]int64, len(events))
	for i, ev := range events {
		out[i] = ev.Seq
	}
	return out
}

func TestReadEvents_Empty(t *testing.T) {
	s := createTestStore(t)

	events, err := s.ReadEvents(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestReadEvents_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	seedLog(t, s)

	events, err := s.ReadEvents(context.Background(), "tabs")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, seqsOf(events))
	assert.Equal(t, "INITIALIZED", events[0].Type)
	assert.Equal(t, ir.Array{ir.String("home"), ir.String("inbox"), ir.String("sent")}, events[0].Values)
}

func TestReadEvents_SameSeqOrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createTestEvent("tabs", 1, "a", 0)
	b := createTestEvent("tabs", 1, "b", 1)
	require.NoError(t, s.WriteEvent(ctx, b))
	require.NoError(t, s.WriteEvent(ctx, a))

	events, err := s.ReadEvents(ctx, "tabs")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Less(t, events[0].ID, events[1].ID)
}

func TestReadEvent_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadEvent(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestQueryEvents(t *testing.T) {
	s := createTestStore(t)
	seedLog(t, s)

	tests := []struct {
		name   string
		filter queryir.Filter
		want   []int64
	}{
		{"all tabs", queryir.Filter{EngineID: "tabs"}, []int64{1, 2, 3, 4}},
		{"by type", queryir.Filter{EngineID: "tabs", Types: []string{"ACTIVATED"}}, []int64{2, 4}},
		{"two types", queryir.Filter{EngineID: "tabs", Types: []string{"ACTIVATED", "DEACTIVATED"}}, []int64{2, 3, 4}},
		{"from seq", queryir.Filter{EngineID: "tabs", FromSeq: 3}, []int64{3, 4}},
		{"seq window", queryir.Filter{EngineID: "tabs", FromSeq: 2, ToSeq: 3}, []int64{2, 3}},
		{"index", queryir.Filter{EngineID: "tabs", Index: index(1)}, []int64{2, 3}},
		{"index zero includes initial", queryir.Filter{EngineID: "tabs", Index: index(0)}, []int64{1}},
		{"limit", queryir.Filter{EngineID: "tabs", Limit: 2}, []int64{1, 2}},
		{"evicted index", queryir.Filter{EngineID: "carousel", Types: []string{"ACTIVATED"}, Index: index(0)}, []int64{2}},
		{"no match", queryir.Filter{EngineID: "tabs", Types: []string{"SWAPPED"}}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := s.QueryEvents(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, seqsOf(events))
		})
	}
}

func TestQueryEvents_AcrossEngines(t *testing.T) {
	s := createTestStore(t)
	seedLog(t, s)

	events, err := s.QueryEvents(context.Background(), queryir.Filter{Types: []string{"INITIALIZED"}})
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, int64(1), ev.Seq)
	}
}

func TestQueryEvents_InvalidFilter(t *testing.T) {
	s := createTestStore(t)

	_, err := s.QueryEvents(context.Background(), queryir.Filter{FromSeq: 5, ToSeq: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query events")
}

func index(i int64) *int64 { return &i }
