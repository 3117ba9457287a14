package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// RewardStore implements storage.RewardStore using PostgreSQL.
// The seq column (BIGSERIAL) preserves creation order even when multiple
// ledger entries share a created_at timestamp.
type RewardStore struct {
	pool *Pool
}

// NewRewardStore creates a new RewardStore.
func NewRewardStore(pool *Pool) *RewardStore {
	return &RewardStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RewardStore = (*RewardStore)(nil)

const rewardColumns = `
	id, recipient_id, source_tx_id, source_wallet, kind, amount, currency,
	status, layer_number, layer_ordinal, pending_expiry, notes, created_at
`

// Insert adds a reward entry. Returns ErrDuplicateKey if the id exists.
func (s *RewardStore) Insert(ctx context.Context, r *domain.Reward) error {
	if r == nil || r.ID == "" || !r.Kind.IsValid() || !r.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO rewards (
			id, recipient_id, source_tx_id, source_wallet, kind, amount, currency,
			status, layer_number, layer_ordinal, pending_expiry, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.q(ctx).Exec(ctx, query,
		r.ID,
		r.RecipientID,
		r.SourceTxID,
		r.SourceWallet,
		string(r.Kind),
		r.Amount,
		r.Currency,
		string(r.Status),
		r.LayerNumber,
		r.LayerOrdinal,
		r.PendingExpiry,
		r.Notes,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert reward: %w", err)
	}
	return nil
}

// GetByID retrieves a reward by id. Returns ErrNotFound if not exists.
func (s *RewardStore) GetByID(ctx context.Context, id string) (*domain.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1`

	row := s.pool.q(ctx).QueryRow(ctx, query, id)
	r, err := scanReward(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get reward by id: %w", err)
	}
	return r, nil
}

// ListByRecipient retrieves a member's rewards in creation order.
func (s *RewardStore) ListByRecipient(ctx context.Context, recipientID int64) ([]*domain.Reward, error) {
	query := `
		SELECT ` + rewardColumns + `
		FROM rewards
		WHERE recipient_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.q(ctx).Query(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list rewards by recipient: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

// ListPendingByRecipient retrieves a member's pending rewards of one kind
// in creation order.
func (s *RewardStore) ListPendingByRecipient(ctx context.Context, recipientID int64, kind domain.RewardKind) ([]*domain.Reward, error) {
	query := `
		SELECT ` + rewardColumns + `
		FROM rewards
		WHERE recipient_id = $1 AND kind = $2 AND status = $3
		ORDER BY seq ASC
	`

	rows, err := s.pool.q(ctx).Query(ctx, query, recipientID, string(kind), string(domain.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("list pending rewards: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

// MarkInstant transitions a pending reward to instant.
func (s *RewardStore) MarkInstant(ctx context.Context, id string) error {
	query := `
		UPDATE rewards SET status = $2
		WHERE id = $1 AND status = $3
	`

	tag, err := s.pool.q(ctx).Exec(ctx, query, id, string(domain.StatusInstant), string(domain.StatusPending))
	if err != nil {
		return fmt.Errorf("mark reward instant: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish missing reward from a disallowed transition
	var status string
	err = s.pool.q(ctx).QueryRow(ctx, `SELECT status FROM rewards WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check reward status: %w", err)
	}
	return storage.ErrInvalidInput
}

// ListAll retrieves every reward in creation order.
func (s *RewardStore) ListAll(ctx context.Context) ([]*domain.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards ORDER BY seq ASC`

	rows, err := s.pool.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

// DeleteAll removes every reward.
func (s *RewardStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.q(ctx).Exec(ctx, `TRUNCATE rewards RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("truncate rewards: %w", err)
	}
	return nil
}

// scanReward scans a single row into a Reward.
func scanReward(row pgx.Row) (*domain.Reward, error) {
	var r domain.Reward
	var kind, status string

	err := row.Scan(
		&r.ID,
		&r.RecipientID,
		&r.SourceTxID,
		&r.SourceWallet,
		&kind,
		&r.Amount,
		&r.Currency,
		&status,
		&r.LayerNumber,
		&r.LayerOrdinal,
		&r.PendingExpiry,
		&r.Notes,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = domain.RewardKind(kind)
	r.Status = domain.RewardStatus(status)
	return &r, nil
}

// scanRewards scans multiple rows into a slice of Reward.
func scanRewards(rows pgx.Rows) ([]*domain.Reward, error) {
	var rewards []*domain.Reward

	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward row: %w", err)
		}
		rewards = append(rewards, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward rows: %w", err)
	}

	return rewards, nil
}
