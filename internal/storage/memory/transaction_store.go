package memory

import (
	"context"
	"sort"
	"sync"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by transaction id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

// Insert adds a transaction. Returns ErrDuplicateKey if the id exists.
func (s *TransactionStore) Insert(_ context.Context, t *domain.Transaction) error {
	if t == nil || t.ID == "" || t.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	txCopy := *t
	s.data[t.ID] = &txCopy
	return nil
}

// GetByID retrieves a transaction by id. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	txCopy := *t
	return &txCopy, nil
}

// ListByWallet retrieves a wallet's transactions ordered by
// (payment_time ASC, stream_index ASC).
func (s *TransactionStore) ListByWallet(_ context.Context, wallet string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, t := range s.data {
		if t.Wallet == wallet {
			txCopy := *t
			result = append(result, &txCopy)
		}
	}

	sortTransactions(result)
	return result, nil
}

// ListAll retrieves every transaction ordered by
// (payment_time ASC, stream_index ASC).
func (s *TransactionStore) ListAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0, len(s.data))
	for _, t := range s.data {
		txCopy := *t
		result = append(result, &txCopy)
	}

	sortTransactions(result)
	return result, nil
}

// DeleteAll removes every transaction.
func (s *TransactionStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.Transaction)
	return nil
}

func sortTransactions(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].PaymentTime != txs[j].PaymentTime {
			return txs[i].PaymentTime < txs[j].PaymentTime
		}
		return txs[i].StreamIndex < txs[j].StreamIndex
	})
}

// Verify interface compliance at compile time.
var _ storage.TransactionStore = (*TransactionStore)(nil)
