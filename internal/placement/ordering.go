package placement

import (
	"sort"

	"matrix-ledger/internal/domain"
)

// FirstAppearance is one wallet's first occurrence in the payment stream.
// It carries everything placement needs: who referred the wallet and when it
// was first seen.
type FirstAppearance struct {
	Wallet         string
	ReferrerWallet string
	FirstSeen      int64 // Unix milliseconds
	StreamIndex    int   // position in the source stream, breaks time ties
}

// FirstAppearances reduces a transaction set to one entry per wallet, keyed
// by the earliest (payment_time, stream_index) transaction, and returns the
// entries sorted ascending by (FirstSeen, StreamIndex). The referrer recorded
// on later transactions of the same wallet is ignored.
func FirstAppearances(txs []*domain.Transaction) []*FirstAppearance {
	earliest := make(map[string]*domain.Transaction)
	for _, tx := range txs {
		prev, ok := earliest[tx.Wallet]
		if !ok || txBefore(tx, prev) {
			earliest[tx.Wallet] = tx
		}
	}

	apps := make([]*FirstAppearance, 0, len(earliest))
	for _, tx := range earliest {
		ref := tx.ReferrerWallet
		if ref == tx.Wallet {
			ref = "" // self-referral means root
		}
		apps = append(apps, &FirstAppearance{
			Wallet:         tx.Wallet,
			ReferrerWallet: ref,
			FirstSeen:      tx.PaymentTime,
			StreamIndex:    tx.StreamIndex,
		})
	}

	sort.Slice(apps, func(i, j int) bool {
		if apps[i].FirstSeen != apps[j].FirstSeen {
			return apps[i].FirstSeen < apps[j].FirstSeen
		}
		return apps[i].StreamIndex < apps[j].StreamIndex
	})
	return apps
}

func txBefore(a, b *domain.Transaction) bool {
	if a.PaymentTime != b.PaymentTime {
		return a.PaymentTime < b.PaymentTime
	}
	return a.StreamIndex < b.StreamIndex
}
