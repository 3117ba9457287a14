package clickhouse

import (
	"context"
	"fmt"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// RewardEventStore implements storage.RewardEventStore using ClickHouse.
// It is an analytics sink for dashboards and reporting; the PostgreSQL
// reward ledger stays the system of record.
type RewardEventStore struct {
	conn *Conn
}

// NewRewardEventStore creates a new RewardEventStore.
func NewRewardEventStore(conn *Conn) *RewardEventStore {
	return &RewardEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RewardEventStore = (*RewardEventStore)(nil)

// InsertBulk appends reward events. Duplicate ids are rejected.
// ClickHouse MergeTree does not enforce uniqueness at insert time, so the
// batch is checked against existing rows first (ReplacingMergeTree dedupes
// anything that slips through a concurrent writer).
func (s *RewardEventStore) InsertBulk(ctx context.Context, rewards []*domain.Reward) error {
	if len(rewards) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(rewards))
	for _, r := range rewards {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[r.ID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[r.ID] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, r := range rewards {
		exists, err := s.exists(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO reward_events (
			id, recipient_id, source_tx_id, source_wallet, kind, amount, currency,
			status, layer_number, layer_ordinal, pending_expiry, notes, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rewards {
		err = batch.Append(
			r.ID,
			r.RecipientID,
			r.SourceTxID,
			r.SourceWallet,
			string(r.Kind),
			r.Amount,
			r.Currency,
			string(r.Status),
			intPtrToInt32(r.LayerNumber),
			intPtrToInt32(r.LayerOrdinal),
			r.PendingExpiry,
			r.Notes,
			r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// TotalsByKind returns aggregate amounts grouped by (kind, status, currency).
func (s *RewardEventStore) TotalsByKind(ctx context.Context) ([]*storage.RewardTotal, error) {
	query := `
		SELECT kind, status, currency, count() AS cnt, sum(amount) AS total
		FROM reward_events FINAL
		GROUP BY kind, status, currency
		ORDER BY kind, status, currency
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reward totals: %w", err)
	}
	defer rows.Close()

	var totals []*storage.RewardTotal
	for rows.Next() {
		var (
			kind, status, currency string
			count                  uint64
			amount                 float64
		)
		if err := rows.Scan(&kind, &status, &currency, &count, &amount); err != nil {
			return nil, fmt.Errorf("scan reward total row: %w", err)
		}
		totals = append(totals, &storage.RewardTotal{
			Kind:     domain.RewardKind(kind),
			Status:   domain.RewardStatus(status),
			Currency: currency,
			Count:    int64(count),
			Amount:   amount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward total rows: %w", err)
	}

	return totals, nil
}

// exists checks whether a reward event id is already stored.
func (s *RewardEventStore) exists(ctx context.Context, id string) (bool, error) {
	row := s.conn.QueryRow(ctx, `SELECT count() FROM reward_events WHERE id = ?`, id)

	var count uint64
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func intPtrToInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	out := int32(*v)
	return &out
}
