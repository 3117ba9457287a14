package rewards

import (
	"context"
	"errors"
	"fmt"
	"math"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/idhash"
	"matrix-ledger/internal/storage"
)

// Engine derives reward ledger entries from qualifying payments. Process must
// be invoked once per transaction in strict ascending payment-time order; the
// caller sorts. Layer counter ordinals and pending releases depend on that
// order, so the engine is single-writer.
type Engine struct {
	catalog   *domain.Catalog
	members   storage.MemberStore
	ancestors storage.AncestorLinkStore
	rewards   storage.RewardStore
	counters  storage.LayerCounterStore
}

// NewEngine creates a new reward engine.
func NewEngine(
	catalog *domain.Catalog,
	members storage.MemberStore,
	ancestors storage.AncestorLinkStore,
	rewards storage.RewardStore,
	counters storage.LayerCounterStore,
) *Engine {
	return &Engine{
		catalog:   catalog,
		members:   members,
		ancestors: ancestors,
		rewards:   rewards,
		counters:  counters,
	}
}

// Process applies one transaction and returns the rewards it emitted.
// A *Rejection error means the transaction was skipped and the batch may
// continue; any other error is a store failure and aborts the run.
//
// Per transaction: resolve the member and verify the level, accumulate
// inflow and raise the level (never lower), release pending sponsor bonuses
// unlocked by a strict raise, emit the instant token reward, the direct
// sponsor bonus, and the layer payout when the detected level is 2 or more.
func (e *Engine) Process(ctx context.Context, tx *domain.Transaction) ([]*domain.Reward, error) {
	member, err := e.members.GetByWallet(ctx, tx.Wallet)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &Rejection{TxID: tx.ID, Wallet: tx.Wallet, Reason: "wallet not placed"}
		}
		return nil, err
	}

	level, rej := e.resolveLevel(tx)
	if rej != nil {
		return nil, rej
	}

	member.InflowUSDT += tx.Amount
	raised := level.Number > member.CurrentLevel
	if raised {
		member.CurrentLevel = level.Number
	}

	var emitted []*domain.Reward

	if raised {
		released, err := e.releasePending(ctx, member)
		if err != nil {
			return nil, err
		}
		emitted = append(emitted, released...)
	}

	token, err := e.emit(ctx, &domain.Reward{
		RecipientID:  member.ID,
		SourceTxID:   tx.ID,
		SourceWallet: tx.Wallet,
		Kind:         domain.RewardToken,
		Amount:       level.TokenReward,
		Currency:     domain.CurrencyMAT,
		Status:       domain.StatusInstant,
		CreatedAt:    tx.PaymentTime,
	})
	if err != nil {
		return nil, err
	}
	member.OutflowMAT += level.TokenReward
	emitted = append(emitted, token)

	if err := e.members.Update(ctx, member); err != nil {
		return nil, err
	}

	if member.ReferrerID != nil && *member.ReferrerID != member.ID {
		sponsor, err := e.emitDirectSponsor(ctx, tx, *member.ReferrerID)
		if err != nil {
			return nil, err
		}
		emitted = append(emitted, sponsor)
	}

	if level.Number >= 2 {
		layer, err := e.emitLayerPayout(ctx, tx, member, level)
		if err != nil {
			return nil, err
		}
		if layer != nil {
			emitted = append(emitted, layer)
		}
	}

	return emitted, nil
}

// resolveLevel matches the payment amount against the catalog and checks it
// against an explicitly declared level.
func (e *Engine) resolveLevel(tx *domain.Transaction) (domain.Level, *Rejection) {
	if tx.DeclaredLevel != 0 {
		level, ok := e.catalog.ByNumber(tx.DeclaredLevel)
		if !ok {
			return domain.Level{}, &Rejection{
				TxID: tx.ID, Wallet: tx.Wallet,
				Reason: fmt.Sprintf("declared level %d does not exist", tx.DeclaredLevel),
			}
		}
		if math.Abs(tx.Amount-level.Fee) > domain.FeeTolerance {
			return domain.Level{}, &Rejection{
				TxID: tx.ID, Wallet: tx.Wallet,
				Reason: fmt.Sprintf("amount %.2f does not match declared level %d fee %.2f", tx.Amount, level.Number, level.Fee),
			}
		}
		return level, nil
	}

	level, ok := e.catalog.DetectLevel(tx.Amount)
	if !ok {
		return domain.Level{}, &Rejection{
			TxID: tx.ID, Wallet: tx.Wallet,
			Reason: fmt.Sprintf("amount %.2f matches no level fee", tx.Amount),
		}
	}
	return level, nil
}

// releasePending converts the member's pending direct sponsor bonuses to
// instant, oldest first, up to the quota the new level unlocks: level 1
// unlocks the first two claims, level 2 and above unlock all. The member's
// aggregates are mutated in place; the caller persists them.
func (e *Engine) releasePending(ctx context.Context, member *domain.Member) ([]*domain.Reward, error) {
	pending, err := e.rewards.ListPendingByRecipient(ctx, member.ID, domain.RewardDirectSponsor)
	if err != nil {
		return nil, err
	}

	var released []*domain.Reward
	for _, r := range pending {
		if member.CurrentLevel < 2 && member.DirectSponsorClaimed >= 2 {
			break
		}
		if err := e.rewards.MarkInstant(ctx, r.ID); err != nil {
			return nil, err
		}
		member.DirectSponsorClaimed++
		member.OutflowUSDT += r.Amount
		r.Status = domain.StatusInstant
		released = append(released, r)
	}
	return released, nil
}

// emitDirectSponsor routes the fixed bonus to the referrer. The status
// depends on the referrer's current level and already-claimed count.
func (e *Engine) emitDirectSponsor(ctx context.Context, tx *domain.Transaction, referrerID int64) (*domain.Reward, error) {
	referrer, err := e.members.GetByID(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	status := domain.StatusInstant
	notes := ""
	switch {
	case referrer.CurrentLevel == 0:
		status = domain.StatusPending
		notes = "sponsor must join first"
	case referrer.CurrentLevel == 1 && referrer.DirectSponsorClaimed >= 2:
		status = domain.StatusPending
		notes = "sponsor must upgrade to unlock the 3rd and later bonuses"
	}

	reward, err := e.emit(ctx, &domain.Reward{
		RecipientID:  referrer.ID,
		SourceTxID:   tx.ID,
		SourceWallet: tx.Wallet,
		Kind:         domain.RewardDirectSponsor,
		Amount:       domain.DirectSponsorBonus,
		Currency:     domain.CurrencyUSDT,
		Status:       status,
		Notes:        notes,
		CreatedAt:    tx.PaymentTime,
	})
	if err != nil {
		return nil, err
	}

	if status == domain.StatusInstant {
		referrer.DirectSponsorClaimed++
		referrer.OutflowUSDT += domain.DirectSponsorBonus
		if err := e.members.Update(ctx, referrer); err != nil {
			return nil, err
		}
	}
	return reward, nil
}

// emitLayerPayout routes the level's fixed payout to the ancestor exactly
// LayerDepth placement hops above the member. Placement depth, not referral
// depth: spillover may put the payout on a different chain than the sponsor
// graph. Returns nil without error when the tree is too shallow.
func (e *Engine) emitLayerPayout(ctx context.Context, tx *domain.Transaction, member *domain.Member, level domain.Level) (*domain.Reward, error) {
	link, err := e.ancestors.AncestorAt(ctx, member.ID, level.LayerDepth)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	upline, err := e.members.GetByID(ctx, link.AncestorID)
	if err != nil {
		return nil, err
	}

	ordinal, err := e.counters.Increment(ctx, upline.ID, level.LayerDepth)
	if err != nil {
		return nil, err
	}

	// The first two arrivals at a layer require the upline to hold the
	// layer's own level; from the third on it must hold the next one.
	required := level.Number
	if ordinal >= 3 {
		required++
	}

	status := domain.StatusInstant
	notes := ""
	var expiry *int64
	if upline.CurrentLevel < required {
		status = domain.StatusPending
		notes = fmt.Sprintf("upline level %d below required %d", upline.CurrentLevel, required)
		at := tx.PaymentTime + domain.PendingExpiryMs
		expiry = &at
	}

	layer := level.LayerDepth
	reward, err := e.emit(ctx, &domain.Reward{
		RecipientID:   upline.ID,
		SourceTxID:    tx.ID,
		SourceWallet:  tx.Wallet,
		Kind:          domain.RewardLayerPayout,
		Amount:        level.LayerPayout,
		Currency:      domain.CurrencyUSDT,
		Status:        status,
		LayerNumber:   &layer,
		LayerOrdinal:  &ordinal,
		PendingExpiry: expiry,
		Notes:         notes,
		CreatedAt:     tx.PaymentTime,
	})
	if err != nil {
		return nil, err
	}

	if status == domain.StatusInstant {
		upline.OutflowUSDT += level.LayerPayout
		if err := e.members.Update(ctx, upline); err != nil {
			return nil, err
		}
	}
	return reward, nil
}

func (e *Engine) emit(ctx context.Context, r *domain.Reward) (*domain.Reward, error) {
	r.ID = idhash.ComputeRewardID(r.SourceTxID, string(r.Kind), r.RecipientID)
	if err := e.rewards.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("insert %s reward: %w", r.Kind, err)
	}
	return r, nil
}
