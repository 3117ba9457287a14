package memory

import (
	"context"
	"sort"
	"sync"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

type rewardEntry struct {
	reward *domain.Reward
	seq    int64 // insertion order, creation timestamps may collide
}

// RewardStore is an in-memory implementation of storage.RewardStore.
type RewardStore struct {
	mu      sync.RWMutex
	data    map[string]*rewardEntry // keyed by reward id
	nextSeq int64
}

// NewRewardStore creates a new in-memory reward store.
func NewRewardStore() *RewardStore {
	return &RewardStore{
		data: make(map[string]*rewardEntry),
	}
}

// Insert adds a reward entry. Returns ErrDuplicateKey if the id exists.
func (s *RewardStore) Insert(_ context.Context, r *domain.Reward) error {
	if r == nil || r.ID == "" || !r.Kind.IsValid() || !r.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	rewardCopy := *r
	s.data[r.ID] = &rewardEntry{reward: &rewardCopy, seq: s.nextSeq}
	s.nextSeq++
	return nil
}

// GetByID retrieves a reward by id. Returns ErrNotFound if not exists.
func (s *RewardStore) GetByID(_ context.Context, id string) (*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	rewardCopy := *e.reward
	return &rewardCopy, nil
}

// ListByRecipient retrieves a member's rewards in creation order.
func (s *RewardStore) ListByRecipient(_ context.Context, recipientID int64) ([]*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectLocked(func(r *domain.Reward) bool {
		return r.RecipientID == recipientID
	}), nil
}

// ListPendingByRecipient retrieves a member's pending rewards of one kind
// in creation order.
func (s *RewardStore) ListPendingByRecipient(_ context.Context, recipientID int64, kind domain.RewardKind) ([]*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectLocked(func(r *domain.Reward) bool {
		return r.RecipientID == recipientID && r.Kind == kind && r.Status == domain.StatusPending
	}), nil
}

// MarkInstant transitions a pending reward to instant.
func (s *RewardStore) MarkInstant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if !e.reward.Status.CanTransition(domain.StatusInstant) {
		return storage.ErrInvalidInput
	}

	e.reward.Status = domain.StatusInstant
	return nil
}

// ListAll retrieves every reward in creation order.
func (s *RewardStore) ListAll(_ context.Context) ([]*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectLocked(func(*domain.Reward) bool { return true }), nil
}

// DeleteAll removes every reward.
func (s *RewardStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*rewardEntry)
	s.nextSeq = 0
	return nil
}

// collectLocked returns copies of matching rewards sorted by insertion order.
func (s *RewardStore) collectLocked(match func(*domain.Reward) bool) []*domain.Reward {
	var entries []*rewardEntry
	for _, e := range s.data {
		if match(e.reward) {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	result := make([]*domain.Reward, len(entries))
	for i, e := range entries {
		rewardCopy := *e.reward
		result[i] = &rewardCopy
	}
	return result
}

// Verify interface compliance at compile time.
var _ storage.RewardStore = (*RewardStore)(nil)
