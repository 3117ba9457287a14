package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// MemberStore implements storage.MemberStore using PostgreSQL.
type MemberStore struct {
	pool *Pool
}

// NewMemberStore creates a new MemberStore.
func NewMemberStore(pool *Pool) *MemberStore {
	return &MemberStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MemberStore = (*MemberStore)(nil)

const memberColumns = `
	id, wallet, referrer_id, root_id, activation_seq, current_level, joined_at,
	inflow_usdt, outflow_usdt, outflow_mat, direct_sponsor_claimed, created_at
`

// Insert adds a new member and assigns its ID.
// Returns ErrDuplicateKey if the wallet already exists.
func (s *MemberStore) Insert(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO members (
			wallet, referrer_id, root_id, activation_seq, current_level, joined_at,
			inflow_usdt, outflow_usdt, outflow_mat, direct_sponsor_claimed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := s.pool.q(ctx).QueryRow(ctx, query,
		m.Wallet,
		m.ReferrerID,
		m.RootID,
		m.ActivationSeq,
		m.CurrentLevel,
		m.JoinedAt,
		m.InflowUSDT,
		m.OutflowUSDT,
		m.OutflowMAT,
		m.DirectSponsorClaimed,
	).Scan(&m.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// GetByID retrieves a member by id. Returns ErrNotFound if not exists.
func (s *MemberStore) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	row := s.pool.q(ctx).QueryRow(ctx, query, id)
	m, err := scanMember(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get member by id: %w", err)
	}
	return m, nil
}

// GetByWallet retrieves a member by wallet. Returns ErrNotFound if not exists.
func (s *MemberStore) GetByWallet(ctx context.Context, wallet string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE wallet = $1`

	row := s.pool.q(ctx).QueryRow(ctx, query, wallet)
	m, err := scanMember(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get member by wallet: %w", err)
	}
	return m, nil
}

// Update persists mutated member aggregates.
// Returns ErrNotFound if the member does not exist.
func (s *MemberStore) Update(ctx context.Context, m *domain.Member) error {
	query := `
		UPDATE members SET
			referrer_id = $2,
			root_id = $3,
			current_level = $4,
			inflow_usdt = $5,
			outflow_usdt = $6,
			outflow_mat = $7,
			direct_sponsor_claimed = $8
		WHERE id = $1
	`

	tag, err := s.pool.q(ctx).Exec(ctx, query,
		m.ID,
		m.ReferrerID,
		m.RootID,
		m.CurrentLevel,
		m.InflowUSDT,
		m.OutflowUSDT,
		m.OutflowMAT,
		m.DirectSponsorClaimed,
	)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List retrieves all members ordered by activation_seq ASC.
func (s *MemberStore) List(ctx context.Context) ([]*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY activation_seq ASC`

	rows, err := s.pool.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// Count returns the number of members.
func (s *MemberStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

// Delete removes a member row. Returns ErrNotFound if not exists.
func (s *MemberStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.q(ctx).Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteAll removes every member and resets id assignment.
func (s *MemberStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.q(ctx).Exec(ctx, `TRUNCATE members RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate members: %w", err)
	}
	return nil
}

// scanMember scans a single row into a Member.
func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	err := row.Scan(
		&m.ID,
		&m.Wallet,
		&m.ReferrerID,
		&m.RootID,
		&m.ActivationSeq,
		&m.CurrentLevel,
		&m.JoinedAt,
		&m.InflowUSDT,
		&m.OutflowUSDT,
		&m.OutflowMAT,
		&m.DirectSponsorClaimed,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// scanMembers scans multiple rows into a slice of Member.
func scanMembers(rows pgx.Rows) ([]*domain.Member, error) {
	var members []*domain.Member

	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}

	return members, nil
}
