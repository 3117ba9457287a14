package memory

import (
	"context"
	"sort"
	"sync"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// MemberStore is an in-memory implementation of storage.MemberStore.
type MemberStore struct {
	mu       sync.RWMutex
	data     map[int64]*domain.Member // keyed by id
	byWallet map[string]int64
	nextID   int64
}

// NewMemberStore creates a new in-memory member store.
func NewMemberStore() *MemberStore {
	return &MemberStore{
		data:     make(map[int64]*domain.Member),
		byWallet: make(map[string]int64),
		nextID:   1,
	}
}

// Insert adds a new member and assigns its ID.
// Returns ErrDuplicateKey if the wallet already exists.
func (s *MemberStore) Insert(_ context.Context, m *domain.Member) error {
	if m == nil || m.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byWallet[m.Wallet]; exists {
		return storage.ErrDuplicateKey
	}

	m.ID = s.nextID
	s.nextID++

	// Store a copy to prevent external mutation
	memberCopy := *m
	s.data[m.ID] = &memberCopy
	s.byWallet[m.Wallet] = m.ID
	return nil
}

// GetByID retrieves a member by id. Returns ErrNotFound if not exists.
func (s *MemberStore) GetByID(_ context.Context, id int64) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	memberCopy := *m
	return &memberCopy, nil
}

// GetByWallet retrieves a member by wallet. Returns ErrNotFound if not exists.
func (s *MemberStore) GetByWallet(_ context.Context, wallet string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byWallet[wallet]
	if !exists {
		return nil, storage.ErrNotFound
	}

	memberCopy := *s.data[id]
	return &memberCopy, nil
}

// Update persists mutated member aggregates.
// Returns ErrNotFound if the member does not exist.
func (s *MemberStore) Update(_ context.Context, m *domain.Member) error {
	if m == nil || m.ID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[m.ID]
	if !exists {
		return storage.ErrNotFound
	}
	if existing.Wallet != m.Wallet {
		// Wallet is stable identity, never rewritten
		return storage.ErrInvalidInput
	}

	memberCopy := *m
	s.data[m.ID] = &memberCopy
	return nil
}

// List retrieves all members ordered by activation_seq ASC.
func (s *MemberStore) List(_ context.Context) ([]*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Member, 0, len(s.data))
	for _, m := range s.data {
		memberCopy := *m
		result = append(result, &memberCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ActivationSeq < result[j].ActivationSeq
	})

	return result, nil
}

// Count returns the number of members.
func (s *MemberStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Delete removes a member row. Returns ErrNotFound if not exists.
func (s *MemberStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}

	delete(s.byWallet, m.Wallet)
	delete(s.data, id)
	return nil
}

// DeleteAll removes every member and resets id assignment.
func (s *MemberStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[int64]*domain.Member)
	s.byWallet = make(map[string]int64)
	s.nextID = 1
	return nil
}

// Verify interface compliance at compile time.
var _ storage.MemberStore = (*MemberStore)(nil)
