package memory

import (
	"context"
	"sort"
	"sync"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// RewardEventStore is an in-memory implementation of storage.RewardEventStore.
// It mirrors the ClickHouse analytics sink for tests and single-process runs.
type RewardEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Reward
}

// NewRewardEventStore creates a new in-memory reward event store.
func NewRewardEventStore() *RewardEventStore {
	return &RewardEventStore{
		data: make(map[string]*domain.Reward),
	}
}

// InsertBulk appends reward events. Duplicate ids are rejected.
func (s *RewardEventStore) InsertBulk(_ context.Context, rewards []*domain.Reward) error {
	for _, r := range rewards {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rewards {
		if _, exists := s.data[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
	}
	for _, r := range rewards {
		rewardCopy := *r
		s.data[r.ID] = &rewardCopy
	}
	return nil
}

// TotalsByKind returns aggregate amounts grouped by (kind, status, currency).
func (s *RewardEventStore) TotalsByKind(_ context.Context) ([]*storage.RewardTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type groupKey struct {
		kind     domain.RewardKind
		status   domain.RewardStatus
		currency string
	}
	groups := make(map[groupKey]*storage.RewardTotal)
	for _, r := range s.data {
		key := groupKey{r.Kind, r.Status, r.Currency}
		total, exists := groups[key]
		if !exists {
			total = &storage.RewardTotal{Kind: r.Kind, Status: r.Status, Currency: r.Currency}
			groups[key] = total
		}
		total.Count++
		total.Amount += r.Amount
	}

	result := make([]*storage.RewardTotal, 0, len(groups))
	for _, total := range groups {
		result = append(result, total)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind < result[j].Kind
		}
		if result[i].Status != result[j].Status {
			return result[i].Status < result[j].Status
		}
		return result[i].Currency < result[j].Currency
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.RewardEventStore = (*RewardEventStore)(nil)
