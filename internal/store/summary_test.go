package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEngines(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ids, err := s.ListEngines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, ids)

	seedLog(t, s)

	ids, err = s.ListEngines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"carousel", "tabs"}, ids)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx, "tabs")
	require.NoError(t, err)
	assert.Zero(t, seq)

	seedLog(t, s)

	seq, err = s.LastSeq(ctx, "tabs")
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)

	seq, err = s.LastSeq(ctx, "carousel")
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestEngineSummary(t *testing.T) {
	s := createTestStore(t)
	seedLog(t, s)

	summary, err := s.EngineSummary(context.Background(), "tabs")
	require.NoError(t, err)

	assert.Equal(t, "tabs", summary.EngineID)
	assert.Equal(t, int64(4), summary.Events)
	assert.Equal(t, int64(1), summary.FirstSeq)
	assert.Equal(t, int64(4), summary.LastSeq)
	assert.Equal(t, map[string]int64{
		"ACTIVATED":   2,
		"DEACTIVATED": 1,
		"INITIALIZED": 1,
	}, summary.CountsByType)
}

func TestEngineSummary_Unknown(t *testing.T) {
	s := createTestStore(t)

	_, err := s.EngineSummary(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownEngine))
}
