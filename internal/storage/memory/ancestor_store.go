package memory

import (
	"context"
	"sort"
	"sync"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

type ancestorKey struct {
	ancestorID   int64
	descendantID int64
}

// AncestorLinkStore is an in-memory implementation of storage.AncestorLinkStore.
type AncestorLinkStore struct {
	mu   sync.RWMutex
	data map[ancestorKey]*domain.AncestorLink
}

// NewAncestorLinkStore creates a new in-memory closure table store.
func NewAncestorLinkStore() *AncestorLinkStore {
	return &AncestorLinkStore{
		data: make(map[ancestorKey]*domain.AncestorLink),
	}
}

// Insert adds one closure row.
// Returns ErrDuplicateKey if the (ancestor, descendant) pair exists.
func (s *AncestorLinkStore) Insert(_ context.Context, l *domain.AncestorLink) error {
	if l == nil || l.AncestorID == 0 || l.DescendantID == 0 || l.Depth < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(l)
}

// InsertBulk adds multiple closure rows atomically.
// Fails the entire batch on any duplicate.
func (s *AncestorLinkStore) InsertBulk(_ context.Context, links []*domain.AncestorLink) error {
	for _, l := range links {
		if l == nil || l.AncestorID == 0 || l.DescendantID == 0 || l.Depth < 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching the map
	seen := make(map[ancestorKey]struct{}, len(links))
	for _, l := range links {
		key := ancestorKey{l.AncestorID, l.DescendantID}
		if _, dup := seen[key]; dup {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	for _, l := range links {
		if err := s.insertLocked(l); err != nil {
			return err
		}
	}
	return nil
}

func (s *AncestorLinkStore) insertLocked(l *domain.AncestorLink) error {
	key := ancestorKey{l.AncestorID, l.DescendantID}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	linkCopy := *l
	s.data[key] = &linkCopy
	return nil
}

// AncestorAt retrieves the ancestor exactly depth hops above the descendant.
// Returns ErrNotFound if the tree is too shallow.
func (s *AncestorLinkStore) AncestorAt(_ context.Context, descendantID int64, depth int) (*domain.AncestorLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.data {
		if l.DescendantID == descendantID && l.Depth == depth {
			linkCopy := *l
			return &linkCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListAncestors retrieves all links for a descendant ordered by depth ASC.
func (s *AncestorLinkStore) ListAncestors(_ context.Context, descendantID int64) ([]*domain.AncestorLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AncestorLink
	for _, l := range s.data {
		if l.DescendantID == descendantID {
			linkCopy := *l
			result = append(result, &linkCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Depth < result[j].Depth
	})

	return result, nil
}

// ListDescendants retrieves all links below an ancestor (depth >= 1)
// ordered by depth ASC, then descendant id ASC.
func (s *AncestorLinkStore) ListDescendants(_ context.Context, ancestorID int64) ([]*domain.AncestorLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AncestorLink
	for _, l := range s.data {
		if l.AncestorID == ancestorID && l.Depth >= 1 {
			linkCopy := *l
			result = append(result, &linkCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Depth != result[j].Depth {
			return result[i].Depth < result[j].Depth
		}
		return result[i].DescendantID < result[j].DescendantID
	})

	return result, nil
}

// CountDescendants returns the number of strict descendants (depth >= 1).
func (s *AncestorLinkStore) CountDescendants(_ context.Context, ancestorID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, l := range s.data {
		if l.AncestorID == ancestorID && l.Depth >= 1 {
			count++
		}
	}
	return count, nil
}

// DeleteByMember removes every closure row naming the member as ancestor or
// descendant.
func (s *AncestorLinkStore) DeleteByMember(_ context.Context, memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, l := range s.data {
		if l.AncestorID == memberID || l.DescendantID == memberID {
			delete(s.data, key)
		}
	}
	return nil
}

// DeleteAll removes every closure row.
func (s *AncestorLinkStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[ancestorKey]*domain.AncestorLink)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.AncestorLinkStore = (*AncestorLinkStore)(nil)
