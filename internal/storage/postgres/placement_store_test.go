package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

func TestPlacementEdgeStore_InsertAndGetByChild(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlacementEdgeStore(pool)
	ctx := context.Background()

	edge := &domain.PlacementEdge{ParentID: 1, ChildID: 2, Slot: 1}
	require.NoError(t, store.Insert(ctx, edge))

	retrieved, err := store.GetByChild(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), retrieved.ParentID)
	assert.Equal(t, 1, retrieved.Slot)
	assert.NotZero(t, retrieved.CreatedAt)

	_, err = store.GetByChild(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPlacementEdgeStore_UniqueConstraints(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlacementEdgeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.PlacementEdge{ParentID: 1, ChildID: 2, Slot: 1}))

	// One parent per child.
	err := store.Insert(ctx, &domain.PlacementEdge{ParentID: 3, ChildID: 2, Slot: 1})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// One child per (parent, slot).
	err = store.Insert(ctx, &domain.PlacementEdge{ParentID: 1, ChildID: 4, Slot: 1})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Slot range is enforced before touching the database.
	err = store.Insert(ctx, &domain.PlacementEdge{ParentID: 1, ChildID: 5, Slot: 4})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestPlacementEdgeStore_ListAndCountByParent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlacementEdgeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.PlacementEdge{ParentID: 1, ChildID: 4, Slot: 3}))
	require.NoError(t, store.Insert(ctx, &domain.PlacementEdge{ParentID: 1, ChildID: 2, Slot: 1}))
	require.NoError(t, store.Insert(ctx, &domain.PlacementEdge{ParentID: 1, ChildID: 3, Slot: 2}))

	edges, err := store.ListByParent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	for i, e := range edges {
		assert.Equal(t, i+1, e.Slot)
	}

	count, err := store.CountByParent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPlacementEdgeStore_DeleteByChild(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlacementEdgeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.PlacementEdge{ParentID: 1, ChildID: 2, Slot: 1}))
	require.NoError(t, store.DeleteByChild(ctx, 2))

	_, err := store.GetByChild(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.DeleteByChild(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
