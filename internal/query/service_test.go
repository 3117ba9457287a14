package query

import (
	"context"
	"errors"
	"testing"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/rebuild"
	"matrix-ledger/internal/storage"
	"matrix-ledger/internal/storage/memory"
)

func newService(t *testing.T, ctx context.Context, txs []*domain.Transaction) *Service {
	t.Helper()

	members := memory.NewMemberStore()
	edges := memory.NewPlacementEdgeStore()
	ancestors := memory.NewAncestorLinkStore()
	transactions := memory.NewTransactionStore()
	rewardStore := memory.NewRewardStore()
	counters := memory.NewLayerCounterStore()

	runner := rebuild.NewRunner(
		domain.DefaultCatalog(),
		members, edges, ancestors, transactions, rewardStore, counters,
		memory.NewAtomic(),
	)
	if _, err := runner.RebuildAll(ctx, txs); err != nil {
		t.Fatalf("RebuildAll failed: %v", err)
	}

	return NewService(domain.DefaultCatalog(), members, edges, ancestors, rewardStore)
}

func tx(wallet, referrer string, paymentTime int64, amount float64, idx int) *domain.Transaction {
	return &domain.Transaction{
		Wallet:         wallet,
		ReferrerWallet: referrer,
		PaymentTime:    paymentTime,
		Amount:         amount,
		StreamIndex:    idx,
	}
}

func TestMemberSummary(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, ctx, []*domain.Transaction{
		tx("root", "", 1000, 130, 1),
		tx("a", "root", 2000, 130, 2),
		tx("b", "a", 3000, 130, 3),
	})

	summary, err := svc.MemberSummary(ctx, "root")
	if err != nil {
		t.Fatalf("MemberSummary failed: %v", err)
	}

	if summary.LevelName != "Warrior" {
		t.Errorf("expected level name Warrior, got %q", summary.LevelName)
	}
	if summary.DirectCount != 1 {
		t.Errorf("expected 1 direct child, got %d", summary.DirectCount)
	}
	if summary.TeamCount != 2 {
		t.Errorf("expected team of 2, got %d", summary.TeamCount)
	}
	// root joined first, so a's sponsor bonus paid out instantly.
	if summary.Member.OutflowUSDT != domain.DirectSponsorBonus {
		t.Errorf("expected outflow 30, got %.2f", summary.Member.OutflowUSDT)
	}
	if summary.PendingUSDT != 0 {
		t.Errorf("expected nothing pending, got %.2f", summary.PendingUSDT)
	}
}

func TestMemberSummaryPendingAmounts(t *testing.T) {
	ctx := context.Background()
	// x's only payment is malformed, so x is placed but stays at level 0 and
	// y's sponsor bonus waits on x.
	svc := newService(t, ctx, []*domain.Transaction{
		tx("x", "", 1000, 111, 1),
		tx("y", "x", 2000, 130, 2),
	})

	summary, err := svc.MemberSummary(ctx, "x")
	if err != nil {
		t.Fatalf("MemberSummary failed: %v", err)
	}
	if summary.PendingUSDT != domain.DirectSponsorBonus {
		t.Errorf("expected pending 30 USDT, got %.2f", summary.PendingUSDT)
	}
	if summary.Member.OutflowUSDT != 0 {
		t.Errorf("expected no outflow while pending, got %.2f", summary.Member.OutflowUSDT)
	}

	history, err := svc.RewardHistory(ctx, "x")
	if err != nil {
		t.Fatalf("RewardHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Status != domain.StatusPending {
		t.Errorf("expected one pending entry in x's history, got %+v", history)
	}
}

func TestMemberSummaryUnknownWallet(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, ctx, []*domain.Transaction{
		tx("root", "", 1000, 130, 1),
	})

	if _, err := svc.MemberSummary(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSystemTotals(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, ctx, []*domain.Transaction{
		tx("root", "", 1000, 130, 1),
		tx("a", "root", 2000, 130, 2),
	})

	totals, err := svc.SystemTotals(ctx)
	if err != nil {
		t.Fatalf("SystemTotals failed: %v", err)
	}

	// Two instant token rewards and one instant sponsor bonus.
	var tokenMAT, sponsorUSDT *storage.RewardTotal
	for _, total := range totals {
		switch {
		case total.Kind == domain.RewardToken && total.Status == domain.StatusInstant:
			tokenMAT = total
		case total.Kind == domain.RewardDirectSponsor && total.Status == domain.StatusInstant:
			sponsorUSDT = total
		}
	}
	if tokenMAT == nil || tokenMAT.Count != 2 || tokenMAT.Amount != 200 {
		t.Errorf("unexpected token totals: %+v", tokenMAT)
	}
	if sponsorUSDT == nil || sponsorUSDT.Count != 1 || sponsorUSDT.Amount != domain.DirectSponsorBonus {
		t.Errorf("unexpected sponsor totals: %+v", sponsorUSDT)
	}
}
