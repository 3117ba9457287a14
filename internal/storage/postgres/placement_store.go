package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/storage"
)

// PlacementEdgeStore implements storage.PlacementEdgeStore using PostgreSQL.
type PlacementEdgeStore struct {
	pool *Pool
}

// NewPlacementEdgeStore creates a new PlacementEdgeStore.
func NewPlacementEdgeStore(pool *Pool) *PlacementEdgeStore {
	return &PlacementEdgeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlacementEdgeStore = (*PlacementEdgeStore)(nil)

// Insert adds a placement edge. Returns ErrDuplicateKey if the child is
// already placed or the (parent, slot) pair is taken.
func (s *PlacementEdgeStore) Insert(ctx context.Context, e *domain.PlacementEdge) error {
	if e == nil || e.Slot < 1 || e.Slot > domain.MaxChildren {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO placement_edges (parent_id, child_id, slot)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.q(ctx).Exec(ctx, query, e.ParentID, e.ChildID, e.Slot)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert placement edge: %w", err)
	}
	return nil
}

// GetByChild retrieves the edge placing a child.
// Returns ErrNotFound if the child has no edge.
func (s *PlacementEdgeStore) GetByChild(ctx context.Context, childID int64) (*domain.PlacementEdge, error) {
	query := `
		SELECT parent_id, child_id, slot, created_at
		FROM placement_edges
		WHERE child_id = $1
	`

	row := s.pool.q(ctx).QueryRow(ctx, query, childID)
	e, err := scanEdge(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get edge by child: %w", err)
	}
	return e, nil
}

// ListByParent retrieves a parent's edges ordered by slot ASC.
func (s *PlacementEdgeStore) ListByParent(ctx context.Context, parentID int64) ([]*domain.PlacementEdge, error) {
	query := `
		SELECT parent_id, child_id, slot, created_at
		FROM placement_edges
		WHERE parent_id = $1
		ORDER BY slot ASC
	`

	rows, err := s.pool.q(ctx).Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list edges by parent: %w", err)
	}
	defer rows.Close()

	var edges []*domain.PlacementEdge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edge rows: %w", err)
	}
	return edges, nil
}

// CountByParent returns the number of direct children of a parent.
func (s *PlacementEdgeStore) CountByParent(ctx context.Context, parentID int64) (int, error) {
	var count int
	err := s.pool.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM placement_edges WHERE parent_id = $1`, parentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count edges by parent: %w", err)
	}
	return count, nil
}

// DeleteByChild removes the edge placing a child.
// Returns ErrNotFound if the child has no edge.
func (s *PlacementEdgeStore) DeleteByChild(ctx context.Context, childID int64) error {
	tag, err := s.pool.q(ctx).Exec(ctx, `DELETE FROM placement_edges WHERE child_id = $1`, childID)
	if err != nil {
		return fmt.Errorf("delete edge by child: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteAll removes every placement edge.
func (s *PlacementEdgeStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.q(ctx).Exec(ctx, `TRUNCATE placement_edges`)
	if err != nil {
		return fmt.Errorf("truncate placement edges: %w", err)
	}
	return nil
}

// scanEdge scans a single row into a PlacementEdge.
func scanEdge(row pgx.Row) (*domain.PlacementEdge, error) {
	var e domain.PlacementEdge
	err := row.Scan(&e.ParentID, &e.ChildID, &e.Slot, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
