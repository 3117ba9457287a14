package memory

import (
	"context"
	"sort"
	"sync"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

type counterKey struct {
	uplineID int64
	layer    int
}

// LayerCounterStore is an in-memory implementation of storage.LayerCounterStore.
type LayerCounterStore struct {
	mu   sync.Mutex
	data map[counterKey]int
}

// NewLayerCounterStore creates a new in-memory layer counter store.
func NewLayerCounterStore() *LayerCounterStore {
	return &LayerCounterStore{
		data: make(map[counterKey]int),
	}
}

// Increment atomically bumps the counter, creating it at zero on first use,
// and returns the new value.
func (s *LayerCounterStore) Increment(_ context.Context, uplineID int64, layer int) (int, error) {
	if uplineID == 0 || layer < 1 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey{uplineID, layer}
	s.data[key]++
	return s.data[key], nil
}

// Get returns the current counter value, zero if never incremented.
func (s *LayerCounterStore) Get(_ context.Context, uplineID int64, layer int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data[counterKey{uplineID, layer}], nil
}

// ListAll retrieves all counters ordered by (upline_id, layer).
func (s *LayerCounterStore) ListAll(_ context.Context) ([]*domain.LayerCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.LayerCounter, 0, len(s.data))
	for key, count := range s.data {
		result = append(result, &domain.LayerCounter{
			UplineID: key.uplineID,
			Layer:    key.layer,
			Count:    count,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UplineID != result[j].UplineID {
			return result[i].UplineID < result[j].UplineID
		}
		return result[i].Layer < result[j].Layer
	})

	return result, nil
}

// DeleteAll removes every counter.
func (s *LayerCounterStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[counterKey]int)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.LayerCounterStore = (*LayerCounterStore)(nil)
