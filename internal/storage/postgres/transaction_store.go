package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const transactionColumns = `
	id, wallet, referrer_wallet, payment_time, amount, declared_level, stream_index, created_at
`

// Insert adds a transaction. Returns ErrDuplicateKey if the id exists.
func (s *TransactionStore) Insert(ctx context.Context, t *domain.Transaction) error {
	if t == nil || t.ID == "" || t.Wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transactions (
			id, wallet, referrer_wallet, payment_time, amount, declared_level, stream_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.q(ctx).Exec(ctx, query,
		t.ID,
		t.Wallet,
		t.ReferrerWallet,
		t.PaymentTime,
		t.Amount,
		t.DeclaredLevel,
		t.StreamIndex,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by id. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	row := s.pool.q(ctx).QueryRow(ctx, query, id)
	t, err := scanTransaction(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// ListByWallet retrieves a wallet's transactions ordered by
// (payment_time ASC, stream_index ASC).
func (s *TransactionStore) ListByWallet(ctx context.Context, wallet string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE wallet = $1
		ORDER BY payment_time ASC, stream_index ASC
	`

	rows, err := s.pool.q(ctx).Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("list transactions by wallet: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListAll retrieves every transaction ordered by
// (payment_time ASC, stream_index ASC).
func (s *TransactionStore) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY payment_time ASC, stream_index ASC
	`

	rows, err := s.pool.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// DeleteAll removes every transaction.
func (s *TransactionStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.q(ctx).Exec(ctx, `TRUNCATE transactions`)
	if err != nil {
		return fmt.Errorf("truncate transactions: %w", err)
	}
	return nil
}

// scanTransaction scans a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID,
		&t.Wallet,
		&t.ReferrerWallet,
		&t.PaymentTime,
		&t.Amount,
		&t.DeclaredLevel,
		&t.StreamIndex,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
