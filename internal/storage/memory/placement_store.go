package memory

import (
	"context"
	"sort"
	"sync"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// PlacementEdgeStore is an in-memory implementation of storage.PlacementEdgeStore.
type PlacementEdgeStore struct {
	mu      sync.RWMutex
	byChild map[int64]*domain.PlacementEdge
}

// NewPlacementEdgeStore creates a new in-memory placement edge store.
func NewPlacementEdgeStore() *PlacementEdgeStore {
	return &PlacementEdgeStore{
		byChild: make(map[int64]*domain.PlacementEdge),
	}
}

// Insert adds a placement edge. Returns ErrDuplicateKey if the child is
// already placed or the (parent, slot) pair is taken.
func (s *PlacementEdgeStore) Insert(_ context.Context, e *domain.PlacementEdge) error {
	if e == nil || e.ParentID == 0 || e.ChildID == 0 {
		return storage.ErrInvalidInput
	}
	if e.Slot < 1 || e.Slot > domain.MaxChildren {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byChild[e.ChildID]; exists {
		return storage.ErrDuplicateKey
	}
	for _, other := range s.byChild {
		if other.ParentID == e.ParentID && other.Slot == e.Slot {
			return storage.ErrDuplicateKey
		}
	}

	edgeCopy := *e
	s.byChild[e.ChildID] = &edgeCopy
	return nil
}

// GetByChild retrieves the edge placing a child.
// Returns ErrNotFound if the child has no edge.
func (s *PlacementEdgeStore) GetByChild(_ context.Context, childID int64) (*domain.PlacementEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.byChild[childID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	edgeCopy := *e
	return &edgeCopy, nil
}

// ListByParent retrieves a parent's edges ordered by slot ASC.
func (s *PlacementEdgeStore) ListByParent(_ context.Context, parentID int64) ([]*domain.PlacementEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PlacementEdge
	for _, e := range s.byChild {
		if e.ParentID == parentID {
			edgeCopy := *e
			result = append(result, &edgeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Slot < result[j].Slot
	})

	return result, nil
}

// CountByParent returns the number of direct children of a parent.
func (s *PlacementEdgeStore) CountByParent(_ context.Context, parentID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.byChild {
		if e.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

// DeleteByChild removes the edge placing a child.
// Returns ErrNotFound if the child has no edge.
func (s *PlacementEdgeStore) DeleteByChild(_ context.Context, childID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byChild[childID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.byChild, childID)
	return nil
}

// DeleteAll removes every placement edge.
func (s *PlacementEdgeStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byChild = make(map[int64]*domain.PlacementEdge)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.PlacementEdgeStore = (*PlacementEdgeStore)(nil)
