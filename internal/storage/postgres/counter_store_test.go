package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerCounterStore_Increment(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLayerCounterStore(pool)
	ctx := context.Background()

	// Lazily created at zero, so the first increment returns 1.
	for want := 1; want <= 3; want++ {
		got, err := store.Increment(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Other keys are independent.
	got, err := store.Increment(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	count, err := store.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = store.Get(ctx, 9, 9)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLayerCounterStore_ListAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLayerCounterStore(pool)
	ctx := context.Background()

	_, err := store.Increment(ctx, 2, 1)
	require.NoError(t, err)
	_, err = store.Increment(ctx, 1, 2)
	require.NoError(t, err)
	_, err = store.Increment(ctx, 1, 1)
	require.NoError(t, err)

	counters, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, counters, 3)
	assert.Equal(t, int64(1), counters[0].UplineID)
	assert.Equal(t, 1, counters[0].Layer)
	assert.Equal(t, int64(1), counters[1].UplineID)
	assert.Equal(t, 2, counters[1].Layer)
	assert.Equal(t, int64(2), counters[2].UplineID)
}
