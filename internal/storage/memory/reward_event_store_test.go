package memory

import (
	"context"
	"errors"
	"testing"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

func sinkReward(id string, kind domain.RewardKind, status domain.RewardStatus, amount float64, currency string) *domain.Reward {
	return &domain.Reward{
		ID:           id,
		RecipientID:  1,
		SourceTxID:   "tx-" + id,
		SourceWallet: "wallet-a",
		Kind:         kind,
		Amount:       amount,
		Currency:     currency,
		Status:       status,
		CreatedAt:    1000,
	}
}

func TestRewardEventStore_TotalsByKind(t *testing.T) {
	store := NewRewardEventStore()
	ctx := context.Background()

	events := []*domain.Reward{
		sinkReward("e1", domain.RewardToken, domain.StatusInstant, 100, domain.CurrencyMAT),
		sinkReward("e2", domain.RewardToken, domain.StatusInstant, 120, domain.CurrencyMAT),
		sinkReward("e3", domain.RewardDirectSponsor, domain.StatusInstant, 30, domain.CurrencyUSDT),
		sinkReward("e4", domain.RewardLayerPayout, domain.StatusPending, 26, domain.CurrencyUSDT),
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	totals, err := store.TotalsByKind(ctx)
	if err != nil {
		t.Fatalf("TotalsByKind failed: %v", err)
	}
	if len(totals) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(totals))
	}

	byKey := make(map[string]*storage.RewardTotal)
	for _, total := range totals {
		byKey[string(total.Kind)+"/"+string(total.Status)] = total
	}

	token := byKey["token/instant"]
	if token == nil || token.Count != 2 || token.Amount != 220 || token.Currency != domain.CurrencyMAT {
		t.Errorf("token group wrong: %+v", token)
	}
	layer := byKey["layer_payout/pending"]
	if layer == nil || layer.Count != 1 || layer.Amount != 26 {
		t.Errorf("layer group wrong: %+v", layer)
	}
}

func TestRewardEventStore_InsertBulkDuplicate(t *testing.T) {
	store := NewRewardEventStore()
	ctx := context.Background()

	first := sinkReward("e1", domain.RewardToken, domain.StatusInstant, 100, domain.CurrencyMAT)
	if err := store.InsertBulk(ctx, []*domain.Reward{first}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	dup := sinkReward("e1", domain.RewardToken, domain.StatusInstant, 100, domain.CurrencyMAT)
	err := store.InsertBulk(ctx, []*domain.Reward{dup})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// A rejected batch must not be partially applied
	totals, err := store.TotalsByKind(ctx)
	if err != nil {
		t.Fatalf("TotalsByKind failed: %v", err)
	}
	if len(totals) != 1 || totals[0].Count != 1 {
		t.Errorf("expected one stored event, got %+v", totals)
	}
}
