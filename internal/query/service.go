package query

import (
	"context"
	"sort"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// Service answers read-only compensation questions by scanning the stores.
// It never mutates state and is safe to use concurrently with itself, though
// reads during a rebuild may observe partial results for that run.
type Service struct {
	catalog   *domain.Catalog
	members   storage.MemberStore
	edges     storage.PlacementEdgeStore
	ancestors storage.AncestorLinkStore
	rewards   storage.RewardStore
}

// NewService creates a new query service.
func NewService(
	catalog *domain.Catalog,
	members storage.MemberStore,
	edges storage.PlacementEdgeStore,
	ancestors storage.AncestorLinkStore,
	rewards storage.RewardStore,
) *Service {
	return &Service{
		catalog:   catalog,
		members:   members,
		edges:     edges,
		ancestors: ancestors,
		rewards:   rewards,
	}
}

// MemberSummary is one member's compensation standing.
type MemberSummary struct {
	Member      *domain.Member
	LevelName   string // "" while the member is at level 0
	DirectCount int    // placed children
	TeamCount   int    // all placement descendants
	PendingUSDT float64
	PendingMAT  float64
}

// MemberSummary resolves a wallet's current standing: level, cumulative
// flows, amounts still pending by currency, and tree sizes.
func (s *Service) MemberSummary(ctx context.Context, wallet string) (*MemberSummary, error) {
	member, err := s.members.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	summary := &MemberSummary{Member: member}
	if level, ok := s.catalog.ByNumber(member.CurrentLevel); ok {
		summary.LevelName = level.Name
	}

	if summary.DirectCount, err = s.edges.CountByParent(ctx, member.ID); err != nil {
		return nil, err
	}
	if summary.TeamCount, err = s.ancestors.CountDescendants(ctx, member.ID); err != nil {
		return nil, err
	}

	history, err := s.rewards.ListByRecipient(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range history {
		if r.Status != domain.StatusPending {
			continue
		}
		switch r.Currency {
		case domain.CurrencyUSDT:
			summary.PendingUSDT += r.Amount
		case domain.CurrencyMAT:
			summary.PendingMAT += r.Amount
		}
	}
	return summary, nil
}

// RewardHistory returns a wallet's ledger entries in creation order.
func (s *Service) RewardHistory(ctx context.Context, wallet string) ([]*domain.Reward, error) {
	member, err := s.members.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return s.rewards.ListByRecipient(ctx, member.ID)
}

// SystemTotals aggregates the whole ledger by (kind, status, currency),
// ordered by those keys. This is the relational path; the analytics sink
// answers the same question for dashboards.
func (s *Service) SystemTotals(ctx context.Context) ([]*storage.RewardTotal, error) {
	all, err := s.rewards.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	type key struct {
		kind     domain.RewardKind
		status   domain.RewardStatus
		currency string
	}
	grouped := make(map[key]*storage.RewardTotal)
	for _, r := range all {
		k := key{r.Kind, r.Status, r.Currency}
		total, ok := grouped[k]
		if !ok {
			total = &storage.RewardTotal{Kind: r.Kind, Status: r.Status, Currency: r.Currency}
			grouped[k] = total
		}
		total.Count++
		total.Amount += r.Amount
	}

	totals := make([]*storage.RewardTotal, 0, len(grouped))
	for _, total := range grouped {
		totals = append(totals, total)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Kind != totals[j].Kind {
			return totals[i].Kind < totals[j].Kind
		}
		if totals[i].Status != totals[j].Status {
			return totals[i].Status < totals[j].Status
		}
		return totals[i].Currency < totals[j].Currency
	})
	return totals, nil
}
