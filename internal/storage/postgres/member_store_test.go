package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

func TestMemberStore_InsertAndGetByWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMemberStore(pool)
	ctx := context.Background()

	member := &domain.Member{
		Wallet:        "wallet-001",
		ActivationSeq: 1,
		JoinedAt:      1700000000000,
	}

	err := store.Insert(ctx, member)
	require.NoError(t, err)
	require.NotZero(t, member.ID, "insert must assign an id")

	retrieved, err := store.GetByWallet(ctx, "wallet-001")
	require.NoError(t, err)

	assert.Equal(t, member.ID, retrieved.ID)
	assert.Equal(t, member.Wallet, retrieved.Wallet)
	assert.Nil(t, retrieved.ReferrerID)
	assert.Equal(t, member.ActivationSeq, retrieved.ActivationSeq)
	assert.Equal(t, member.JoinedAt, retrieved.JoinedAt)
	assert.Zero(t, retrieved.CurrentLevel)
	assert.NotZero(t, retrieved.CreatedAt)
}

func TestMemberStore_InsertDuplicateWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMemberStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, &domain.Member{Wallet: "wallet-dup", ActivationSeq: 1})
	require.NoError(t, err)

	err = store.Insert(ctx, &domain.Member{Wallet: "wallet-dup", ActivationSeq: 2})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestMemberStore_UpdateAggregates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMemberStore(pool)
	ctx := context.Background()

	sponsor := &domain.Member{Wallet: "sponsor", ActivationSeq: 1}
	require.NoError(t, store.Insert(ctx, sponsor))

	member := &domain.Member{Wallet: "member", ActivationSeq: 2}
	require.NoError(t, store.Insert(ctx, member))

	member.ReferrerID = ptr(sponsor.ID)
	member.RootID = sponsor.ID
	member.CurrentLevel = 2
	member.InflowUSDT = 280
	member.OutflowUSDT = 30
	member.OutflowMAT = 220
	member.DirectSponsorClaimed = 1
	require.NoError(t, store.Update(ctx, member))

	retrieved, err := store.GetByID(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.ReferrerID)
	assert.Equal(t, sponsor.ID, *retrieved.ReferrerID)
	assert.Equal(t, sponsor.ID, retrieved.RootID)
	assert.Equal(t, 2, retrieved.CurrentLevel)
	assert.Equal(t, 280.0, retrieved.InflowUSDT)
	assert.Equal(t, 30.0, retrieved.OutflowUSDT)
	assert.Equal(t, 220.0, retrieved.OutflowMAT)
	assert.Equal(t, 1, retrieved.DirectSponsorClaimed)
}

func TestMemberStore_UpdateMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMemberStore(pool)
	ctx := context.Background()

	err := store.Update(ctx, &domain.Member{ID: 12345, Wallet: "ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemberStore_DeleteAllResetsIdentity(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMemberStore(pool)
	ctx := context.Background()

	first := &domain.Member{Wallet: "first", ActivationSeq: 1}
	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.DeleteAll(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Identity restarts so rebuilds reproduce the same member ids.
	again := &domain.Member{Wallet: "first", ActivationSeq: 1}
	require.NoError(t, store.Insert(ctx, again))
	assert.Equal(t, first.ID, again.ID)
}
