package placement

import (
	"context"
	"errors"
	"fmt"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// Engine assigns members into the ternary placement tree and maintains the
// ancestor closure table incrementally. It is single-writer: PlaceAll must
// not run concurrently with itself or with reward processing.
type Engine struct {
	members   storage.MemberStore
	edges     storage.PlacementEdgeStore
	ancestors storage.AncestorLinkStore
	atomic    storage.Atomic
}

// NewEngine creates a new placement engine.
func NewEngine(
	members storage.MemberStore,
	edges storage.PlacementEdgeStore,
	ancestors storage.AncestorLinkStore,
	atomic storage.Atomic,
) *Engine {
	return &Engine{
		members:   members,
		edges:     edges,
		ancestors: ancestors,
		atomic:    atomic,
	}
}

// Report summarizes one PlaceAll run.
type Report struct {
	Placed   int       // members anchored under a parent
	Roots    int       // members anchored as tree roots
	Existing int       // wallets already anchored, no-op
	Gaps     []string  // wallets whose referrer was absent, anchored as roots
	Unplaced []Failure // members left unanchored with the reason
}

// Failure records one member the engine could not place.
type Failure struct {
	Wallet string
	Reason string
}

type outcome int

const (
	outcomePlaced outcome = iota + 1
	outcomeRoot
	outcomeGap
	outcomeExisting
)

// PlaceAll anchors every first appearance, in order, under its referrer or
// the best spillover slot in the referrer's subtree. Input must already be
// deduplicated and sorted; see FirstAppearances. Each member's edge and
// closure extension commit as one atomic unit. A member without a free slot
// anywhere in the subtree is reported and the batch continues; a store
// failure aborts the run.
func (e *Engine) PlaceAll(ctx context.Context, apps []*FirstAppearance) (*Report, error) {
	report := &Report{}

	for i, app := range apps {
		seq := int64(i + 1)

		var out outcome
		err := e.atomic.WithinTx(ctx, func(txCtx context.Context) error {
			o, err := e.placeOne(txCtx, app, seq)
			out = o
			return err
		})
		if err != nil {
			if errors.Is(err, ErrNoFreeSlot) {
				report.Unplaced = append(report.Unplaced, Failure{
					Wallet: app.Wallet,
					Reason: "no free slot in referrer subtree",
				})
				continue
			}
			return report, fmt.Errorf("place %s: %w", app.Wallet, err)
		}

		switch out {
		case outcomePlaced:
			report.Placed++
		case outcomeRoot:
			report.Roots++
		case outcomeGap:
			report.Roots++
			report.Gaps = append(report.Gaps, app.Wallet)
		case outcomeExisting:
			report.Existing++
		}
	}

	return report, nil
}

// Remove deletes a childless member together with its edge and closure rows.
// Returns ErrHasChildren if the member still has placed children.
func (e *Engine) Remove(ctx context.Context, memberID int64) error {
	return e.atomic.WithinTx(ctx, func(txCtx context.Context) error {
		n, err := e.edges.CountByParent(txCtx, memberID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasChildren
		}
		if err := e.edges.DeleteByChild(txCtx, memberID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err := e.ancestors.DeleteByMember(txCtx, memberID); err != nil {
			return err
		}
		return e.members.Delete(txCtx, memberID)
	})
}

func (e *Engine) placeOne(ctx context.Context, app *FirstAppearance, seq int64) (outcome, error) {
	member, err := e.members.GetByWallet(ctx, app.Wallet)
	switch {
	case err == nil:
		anchored, err := e.isAnchored(ctx, member)
		if err != nil {
			return 0, err
		}
		if anchored {
			return outcomeExisting, nil
		}
		// Known wallet that was never anchored (interrupted prior run).
	case errors.Is(err, storage.ErrNotFound):
		member = &domain.Member{
			Wallet:        app.Wallet,
			ActivationSeq: seq,
			JoinedAt:      app.FirstSeen,
		}
		if err := e.members.Insert(ctx, member); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	return e.anchor(ctx, member, app)
}

// isAnchored reports whether the member already has a placement edge or is an
// established root.
func (e *Engine) isAnchored(ctx context.Context, m *domain.Member) (bool, error) {
	if _, err := e.edges.GetByChild(ctx, m.ID); err == nil {
		return true, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	return m.RootID == m.ID && m.ID != 0, nil
}

func (e *Engine) anchor(ctx context.Context, m *domain.Member, app *FirstAppearance) (outcome, error) {
	var referrer *domain.Member
	if app.ReferrerWallet != "" {
		r, err := e.members.GetByWallet(ctx, app.ReferrerWallet)
		switch {
		case err == nil && r.ID != m.ID:
			referrer = r
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return 0, err
		}
	}

	if referrer == nil {
		m.RootID = m.ID
		if err := e.members.Update(ctx, m); err != nil {
			return 0, err
		}
		selfLink := &domain.AncestorLink{AncestorID: m.ID, DescendantID: m.ID, Depth: 0}
		if err := e.ancestors.Insert(ctx, selfLink); err != nil {
			return 0, err
		}
		if app.ReferrerWallet != "" {
			return outcomeGap, nil
		}
		return outcomeRoot, nil
	}

	parent, slot, err := e.findSlot(ctx, referrer)
	if err != nil {
		return 0, err
	}

	refID := referrer.ID
	m.ReferrerID = &refID
	m.RootID = parent.RootID
	if err := e.members.Update(ctx, m); err != nil {
		return 0, err
	}

	edge := &domain.PlacementEdge{ParentID: parent.ID, ChildID: m.ID, Slot: slot}
	if err := e.edges.Insert(ctx, edge); err != nil {
		return 0, err
	}

	// Closure extension: self link plus (a, parent, d) -> (a, m, d+1).
	parentLinks, err := e.ancestors.ListAncestors(ctx, parent.ID)
	if err != nil {
		return 0, err
	}
	links := make([]*domain.AncestorLink, 0, len(parentLinks)+1)
	links = append(links, &domain.AncestorLink{AncestorID: m.ID, DescendantID: m.ID, Depth: 0})
	for _, l := range parentLinks {
		links = append(links, &domain.AncestorLink{
			AncestorID:   l.AncestorID,
			DescendantID: m.ID,
			Depth:        l.Depth + 1,
		})
	}
	if err := e.ancestors.InsertBulk(ctx, links); err != nil {
		return 0, err
	}

	return outcomePlaced, nil
}

// findSlot returns the parent and slot for a new child of referrer. With an
// open slot on the referrer the child goes there directly; otherwise the
// engine spills over to the best node in the referrer's subtree, preferring
// fewest children, then shallowest depth, then earliest join, then lowest id.
func (e *Engine) findSlot(ctx context.Context, referrer *domain.Member) (*domain.Member, int, error) {
	n, err := e.edges.CountByParent(ctx, referrer.ID)
	if err != nil {
		return nil, 0, err
	}
	if n < domain.MaxChildren {
		return referrer, n + 1, nil
	}

	descendants, err := e.ancestors.ListDescendants(ctx, referrer.ID)
	if err != nil {
		return nil, 0, err
	}

	var (
		best         *domain.Member
		bestChildren int
		bestDepth    int
	)
	for _, link := range descendants {
		cnt, err := e.edges.CountByParent(ctx, link.DescendantID)
		if err != nil {
			return nil, 0, err
		}
		if cnt >= domain.MaxChildren {
			continue
		}
		cand, err := e.members.GetByID(ctx, link.DescendantID)
		if err != nil {
			return nil, 0, err
		}
		if best == nil || preferSlot(cand, cnt, link.Depth, best, bestChildren, bestDepth) {
			best, bestChildren, bestDepth = cand, cnt, link.Depth
		}
	}
	if best == nil {
		return nil, 0, ErrNoFreeSlot
	}
	return best, bestChildren + 1, nil
}

func preferSlot(c *domain.Member, cChildren, cDepth int, b *domain.Member, bChildren, bDepth int) bool {
	if cChildren != bChildren {
		return cChildren < bChildren
	}
	if cDepth != bDepth {
		return cDepth < bDepth
	}
	if c.JoinedAt != b.JoinedAt {
		return c.JoinedAt < b.JoinedAt
	}
	return c.ID < b.ID
}
