package placement

import (
	"testing"

	"matrix-ledger/internal/domain"
)

func TestFirstAppearancesDedupesAndSorts(t *testing.T) {
	txs := []*domain.Transaction{
		{Wallet: "bob", ReferrerWallet: "alice", PaymentTime: 2000, StreamIndex: 3},
		{Wallet: "alice", ReferrerWallet: "", PaymentTime: 1000, StreamIndex: 1},
		// Later upgrade by bob with a different referrer must be ignored.
		{Wallet: "bob", ReferrerWallet: "mallory", PaymentTime: 3000, StreamIndex: 5},
		{Wallet: "carol", ReferrerWallet: "alice", PaymentTime: 2000, StreamIndex: 2},
	}

	apps := FirstAppearances(txs)
	if len(apps) != 3 {
		t.Fatalf("expected 3 appearances, got %d", len(apps))
	}

	if apps[0].Wallet != "alice" {
		t.Errorf("expected alice first, got %s", apps[0].Wallet)
	}
	// carol and bob share payment time 2000; stream index breaks the tie.
	if apps[1].Wallet != "carol" || apps[2].Wallet != "bob" {
		t.Errorf("expected carol then bob, got %s then %s", apps[1].Wallet, apps[2].Wallet)
	}
	if apps[2].ReferrerWallet != "alice" {
		t.Errorf("expected bob's first referrer alice, got %q", apps[2].ReferrerWallet)
	}
}

func TestFirstAppearancesSelfReferralBecomesRoot(t *testing.T) {
	txs := []*domain.Transaction{
		{Wallet: "alice", ReferrerWallet: "alice", PaymentTime: 1000, StreamIndex: 1},
	}

	apps := FirstAppearances(txs)
	if len(apps) != 1 {
		t.Fatalf("expected 1 appearance, got %d", len(apps))
	}
	if apps[0].ReferrerWallet != "" {
		t.Errorf("expected empty referrer for self-referral, got %q", apps[0].ReferrerWallet)
	}
}
