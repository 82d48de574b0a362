package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveThenLoadReturnsLastValueWritten(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "d1", 0, 42, false))

	rows, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ChunkProgress{ChunkIndex: 0, Downloaded: 42, Complete: false}, rows[0])
}

func TestSaveUpsertsOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "d1", 0, 10, false))
	require.NoError(t, s.Save(ctx, "d1", 0, 40, true))

	rows, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 40, rows[0].Downloaded)
	assert.True(t, rows[0].Complete)
}

func TestLoadUnknownJobReturnsEmpty(t *testing.T) {
	s := openTestStore(t)
	rows, err := s.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRowsAreIndependentlyMeaningful(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "d1", 0, 4, true))
	require.NoError(t, s.Save(ctx, "d1", 1, 2, false))
	require.NoError(t, s.Save(ctx, "d2", 0, 1, false))

	d1rows, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, d1rows, 2)

	d2rows, err := s.Load(ctx, "d2")
	require.NoError(t, err)
	assert.Len(t, d2rows, 1)
}
