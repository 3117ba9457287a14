package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// AncestorLinkStore implements storage.AncestorLinkStore using PostgreSQL.
type AncestorLinkStore struct {
	pool *Pool
}

// NewAncestorLinkStore creates a new AncestorLinkStore.
func NewAncestorLinkStore(pool *Pool) *AncestorLinkStore {
	return &AncestorLinkStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AncestorLinkStore = (*AncestorLinkStore)(nil)

// Insert adds one closure row.
// Returns ErrDuplicateKey if the (ancestor, descendant) pair exists.
func (s *AncestorLinkStore) Insert(ctx context.Context, l *domain.AncestorLink) error {
	if l == nil || l.Depth < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ancestor_links (ancestor_id, descendant_id, depth)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.q(ctx).Exec(ctx, query, l.AncestorID, l.DescendantID, l.Depth)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ancestor link: %w", err)
	}
	return nil
}

// InsertBulk adds multiple closure rows atomically.
// Fails the entire batch on any duplicate.
func (s *AncestorLinkStore) InsertBulk(ctx context.Context, links []*domain.AncestorLink) error {
	if len(links) == 0 {
		return nil
	}

	rows := make([][]any, len(links))
	for i, l := range links {
		if l == nil || l.Depth < 0 {
			return storage.ErrInvalidInput
		}
		rows[i] = []any{l.AncestorID, l.DescendantID, l.Depth}
	}

	// CopyFrom inside WithinTx joins the surrounding transaction; outside it,
	// pgx wraps the copy in its own transaction, so the batch stays atomic.
	copier := s.pool.copier(ctx)
	_, err := copier.CopyFrom(ctx,
		pgx.Identifier{"ancestor_links"},
		[]string{"ancestor_id", "descendant_id", "depth"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("bulk insert ancestor links: %w", err)
	}
	return nil
}

// AncestorAt retrieves the ancestor exactly depth hops above the descendant.
// Returns ErrNotFound if the tree is too shallow.
func (s *AncestorLinkStore) AncestorAt(ctx context.Context, descendantID int64, depth int) (*domain.AncestorLink, error) {
	query := `
		SELECT ancestor_id, descendant_id, depth
		FROM ancestor_links
		WHERE descendant_id = $1 AND depth = $2
	`

	row := s.pool.q(ctx).QueryRow(ctx, query, descendantID, depth)
	l, err := scanLink(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ancestor at depth: %w", err)
	}
	return l, nil
}

// ListAncestors retrieves all links for a descendant ordered by depth ASC.
func (s *AncestorLinkStore) ListAncestors(ctx context.Context, descendantID int64) ([]*domain.AncestorLink, error) {
	query := `
		SELECT ancestor_id, descendant_id, depth
		FROM ancestor_links
		WHERE descendant_id = $1
		ORDER BY depth ASC
	`

	rows, err := s.pool.q(ctx).Query(ctx, query, descendantID)
	if err != nil {
		return nil, fmt.Errorf("list ancestors: %w", err)
	}
	defer rows.Close()

	return scanLinks(rows)
}

// ListDescendants retrieves all links below an ancestor (depth >= 1)
// ordered by depth ASC, then descendant id ASC.
func (s *AncestorLinkStore) ListDescendants(ctx context.Context, ancestorID int64) ([]*domain.AncestorLink, error) {
	query := `
		SELECT ancestor_id, descendant_id, depth
		FROM ancestor_links
		WHERE ancestor_id = $1 AND depth >= 1
		ORDER BY depth ASC, descendant_id ASC
	`

	rows, err := s.pool.q(ctx).Query(ctx, query, ancestorID)
	if err != nil {
		return nil, fmt.Errorf("list descendants: %w", err)
	}
	defer rows.Close()

	return scanLinks(rows)
}

// CountDescendants returns the number of strict descendants (depth >= 1).
func (s *AncestorLinkStore) CountDescendants(ctx context.Context, ancestorID int64) (int, error) {
	var count int
	err := s.pool.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM ancestor_links WHERE ancestor_id = $1 AND depth >= 1`, ancestorID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count descendants: %w", err)
	}
	return count, nil
}

// DeleteByMember removes every closure row naming the member as ancestor or
// descendant.
func (s *AncestorLinkStore) DeleteByMember(ctx context.Context, memberID int64) error {
	_, err := s.pool.q(ctx).Exec(ctx,
		`DELETE FROM ancestor_links WHERE ancestor_id = $1 OR descendant_id = $1`, memberID,
	)
	if err != nil {
		return fmt.Errorf("delete links by member: %w", err)
	}
	return nil
}

// DeleteAll removes every closure row.
func (s *AncestorLinkStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.q(ctx).Exec(ctx, `TRUNCATE ancestor_links`)
	if err != nil {
		return fmt.Errorf("truncate ancestor links: %w", err)
	}
	return nil
}

// scanLink scans a single row into an AncestorLink.
func scanLink(row pgx.Row) (*domain.AncestorLink, error) {
	var l domain.AncestorLink
	err := row.Scan(&l.AncestorID, &l.DescendantID, &l.Depth)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// scanLinks scans multiple rows into a slice of AncestorLink.
func scanLinks(rows pgx.Rows) ([]*domain.AncestorLink, error) {
	var links []*domain.AncestorLink

	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ancestor link row: %w", err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ancestor link rows: %w", err)
	}

	return links, nil
}
