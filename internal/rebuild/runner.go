package rebuild

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/idhash"
	"matrix-ledger/internal/placement"
	"matrix-ledger/internal/rewards"
	"matrix-ledger/internal/storage"
)

// Runner rebuilds the entire member, placement and reward state from the
// transaction stream. A rebuild discards all derived state first and replays
// history from scratch, trading recomputation cost for reproducibility: the
// same transaction set yields identical state in any input order.
type Runner struct {
	members      storage.MemberStore
	edges        storage.PlacementEdgeStore
	ancestors    storage.AncestorLinkStore
	transactions storage.TransactionStore
	rewards      storage.RewardStore
	counters     storage.LayerCounterStore
	atomic       storage.Atomic

	placer *placement.Engine
	engine *rewards.Engine
}

// NewRunner creates a new rebuild runner over the given stores.
func NewRunner(
	catalog *domain.Catalog,
	members storage.MemberStore,
	edges storage.PlacementEdgeStore,
	ancestors storage.AncestorLinkStore,
	transactions storage.TransactionStore,
	rewardStore storage.RewardStore,
	counters storage.LayerCounterStore,
	atomic storage.Atomic,
) *Runner {
	return &Runner{
		members:      members,
		edges:        edges,
		ancestors:    ancestors,
		transactions: transactions,
		rewards:      rewardStore,
		counters:     counters,
		atomic:       atomic,
		placer:       placement.NewEngine(members, edges, ancestors, atomic),
		engine:       rewards.NewEngine(catalog, members, ancestors, rewardStore, counters),
	}
}

// Result summarizes one rebuild run.
type Result struct {
	Processed  int
	Rejected   int
	Rejections []*rewards.Rejection
	Placement  *placement.Report
	Totals     Totals
}

// Totals aggregates the rebuilt ledger by status and currency.
type Totals struct {
	Members     int
	Rewards     int
	InstantUSDT float64
	InstantMAT  float64
	PendingUSDT float64
	PendingMAT  float64
}

// RebuildAll resets all derived state and replays the given transactions:
// normalize and dedupe, sort chronologically, place first appearances, then
// fold the reward engine over the ordered ledger. Rejected transactions are
// reported and skipped; a store failure aborts the whole run and the partial
// state must not be trusted.
func (r *Runner) RebuildAll(ctx context.Context, txs []*domain.Transaction) (*Result, error) {
	if err := r.reset(ctx); err != nil {
		return nil, fmt.Errorf("reset state: %w", err)
	}

	result := &Result{}

	normalized := r.normalize(txs, result)
	err := r.atomic.WithinTx(ctx, func(txCtx context.Context) error {
		for _, tx := range normalized {
			if err := r.transactions.Insert(txCtx, tx); err != nil {
				return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Re-read from the store so the fold runs over exactly what was kept.
	ordered, err := r.transactions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	report, err := r.placer.PlaceAll(ctx, placement.FirstAppearances(ordered))
	if err != nil {
		return nil, fmt.Errorf("place members: %w", err)
	}
	result.Placement = report

	for _, tx := range ordered {
		err := r.atomic.WithinTx(ctx, func(txCtx context.Context) error {
			_, err := r.engine.Process(txCtx, tx)
			return err
		})
		if err != nil {
			var rej *rewards.Rejection
			if errors.As(err, &rej) {
				result.Rejected++
				result.Rejections = append(result.Rejections, rej)
				continue
			}
			return nil, fmt.Errorf("process transaction %s: %w", tx.ID, err)
		}
		result.Processed++
	}

	if err := r.tally(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// reset discards every derived row. Transactions go too: the incoming batch
// is the complete source of truth for this run.
func (r *Runner) reset(ctx context.Context) error {
	return r.atomic.WithinTx(ctx, func(txCtx context.Context) error {
		for _, del := range []func(context.Context) error{
			r.rewards.DeleteAll,
			r.counters.DeleteAll,
			r.edges.DeleteAll,
			r.ancestors.DeleteAll,
			r.transactions.DeleteAll,
			r.members.DeleteAll,
		} {
			if err := del(txCtx); err != nil {
				return err
			}
		}
		return nil
	})
}

// normalize assigns deterministic ids, drops malformed rows and duplicate
// payments, and sorts by (payment_time, stream_index).
//
// Duplicates are detected by content (wallet, referrer, time, amount, level),
// not by id: the id hash includes the stream index, so two identical rows
// read at different positions would otherwise both survive and double-count.
func (r *Runner) normalize(txs []*domain.Transaction, result *Result) []*domain.Transaction {
	seen := make(map[string]struct{}, len(txs))
	out := make([]*domain.Transaction, 0, len(txs))

	for _, tx := range txs {
		if tx == nil || tx.Wallet == "" {
			result.Rejected++
			result.Rejections = append(result.Rejections, &rewards.Rejection{
				Reason: "empty wallet",
			})
			continue
		}

		key := fmt.Sprintf("%s|%s|%d|%.6f|%d",
			tx.Wallet, tx.ReferrerWallet, tx.PaymentTime, tx.Amount, tx.DeclaredLevel)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		cp := *tx
		if cp.ID == "" {
			cp.ID = idhash.ComputeTransactionID(cp.Wallet, cp.PaymentTime, cp.Amount, cp.StreamIndex)
		}
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PaymentTime != out[j].PaymentTime {
			return out[i].PaymentTime < out[j].PaymentTime
		}
		return out[i].StreamIndex < out[j].StreamIndex
	})
	return out
}

func (r *Runner) tally(ctx context.Context, result *Result) error {
	members, err := r.members.Count(ctx)
	if err != nil {
		return fmt.Errorf("count members: %w", err)
	}
	result.Totals.Members = members

	all, err := r.rewards.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list rewards: %w", err)
	}
	result.Totals.Rewards = len(all)

	for _, reward := range all {
		switch {
		case reward.Status == domain.StatusInstant && reward.Currency == domain.CurrencyUSDT:
			result.Totals.InstantUSDT += reward.Amount
		case reward.Status == domain.StatusInstant && reward.Currency == domain.CurrencyMAT:
			result.Totals.InstantMAT += reward.Amount
		case reward.Status == domain.StatusPending && reward.Currency == domain.CurrencyUSDT:
			result.Totals.PendingUSDT += reward.Amount
		case reward.Status == domain.StatusPending && reward.Currency == domain.CurrencyMAT:
			result.Totals.PendingMAT += reward.Amount
		}
	}
	return nil
}
