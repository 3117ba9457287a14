package postgres

import (
	"context"
	"fmt"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// LayerCounterStore implements storage.LayerCounterStore using PostgreSQL.
type LayerCounterStore struct {
	pool *Pool
}

// NewLayerCounterStore creates a new LayerCounterStore.
func NewLayerCounterStore(pool *Pool) *LayerCounterStore {
	return &LayerCounterStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LayerCounterStore = (*LayerCounterStore)(nil)

// Increment atomically bumps the counter, creating it at zero on first use,
// and returns the new value. The upsert takes a row lock, so increments are
// serialized by the database.
func (s *LayerCounterStore) Increment(ctx context.Context, uplineID int64, layer int) (int, error) {
	if uplineID == 0 || layer < 1 {
		return 0, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO layer_counters (upline_id, layer, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (upline_id, layer)
		DO UPDATE SET count = layer_counters.count + 1
		RETURNING count
	`

	var count int
	err := s.pool.q(ctx).QueryRow(ctx, query, uplineID, layer).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment layer counter: %w", err)
	}
	return count, nil
}

// Get returns the current counter value, zero if never incremented.
func (s *LayerCounterStore) Get(ctx context.Context, uplineID int64, layer int) (int, error) {
	query := `SELECT count FROM layer_counters WHERE upline_id = $1 AND layer = $2`

	var count int
	err := s.pool.q(ctx).QueryRow(ctx, query, uplineID, layer).Scan(&count)
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get layer counter: %w", err)
	}
	return count, nil
}

// ListAll retrieves all counters ordered by (upline_id, layer).
func (s *LayerCounterStore) ListAll(ctx context.Context) ([]*domain.LayerCounter, error) {
	query := `
		SELECT upline_id, layer, count
		FROM layer_counters
		ORDER BY upline_id ASC, layer ASC
	`

	rows, err := s.pool.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list layer counters: %w", err)
	}
	defer rows.Close()

	var counters []*domain.LayerCounter
	for rows.Next() {
		var c domain.LayerCounter
		if err := rows.Scan(&c.UplineID, &c.Layer, &c.Count); err != nil {
			return nil, fmt.Errorf("scan layer counter row: %w", err)
		}
		counters = append(counters, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layer counter rows: %w", err)
	}

	return counters, nil
}

// DeleteAll removes every counter.
func (s *LayerCounterStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.q(ctx).Exec(ctx, `TRUNCATE layer_counters`)
	if err != nil {
		return fmt.Errorf("truncate layer counters: %w", err)
	}
	return nil
}
