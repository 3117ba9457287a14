package storage

import (
	"context"

	"matrix-ledger/internal/domain"
)

// Atomic wraps fn in a single atomic unit against the backing store.
// Implementations either commit every write made inside fn or none of them.
type Atomic interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemberStore provides access to members storage.
type MemberStore interface {
	// Insert adds a new member and assigns its ID.
	// Returns ErrDuplicateKey if the wallet already exists.
	Insert(ctx context.Context, m *domain.Member) error

	// GetByID retrieves a member by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Member, error)

	// GetByWallet retrieves a member by wallet. Returns ErrNotFound if not exists.
	GetByWallet(ctx context.Context, wallet string) (*domain.Member, error)

	// Update persists mutated member aggregates (level, inflow, outflow,
	// claimed count, root). Returns ErrNotFound if the member does not exist.
	Update(ctx context.Context, m *domain.Member) error

	// List retrieves all members ordered by activation_seq ASC.
	List(ctx context.Context) ([]*domain.Member, error)

	// Count returns the number of members.
	Count(ctx context.Context) (int, error)

	// Delete removes a member row. Callers must ensure the member has no
	// placed children first. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every member and resets id assignment.
	DeleteAll(ctx context.Context) error
}

// PlacementEdgeStore provides access to placement_edges storage.
type PlacementEdgeStore interface {
	// Insert adds a placement edge. Returns ErrDuplicateKey if the child is
	// already placed or the (parent, slot) pair is taken.
	Insert(ctx context.Context, e *domain.PlacementEdge) error

	// GetByChild retrieves the edge placing a child. Returns ErrNotFound if
	// the child has no edge.
	GetByChild(ctx context.Context, childID int64) (*domain.PlacementEdge, error)

	// ListByParent retrieves a parent's edges ordered by slot ASC.
	ListByParent(ctx context.Context, parentID int64) ([]*domain.PlacementEdge, error)

	// CountByParent returns the number of direct children of a parent.
	CountByParent(ctx context.Context, parentID int64) (int, error)

	// DeleteByChild removes the edge placing a child. Returns ErrNotFound if
	// the child has no edge.
	DeleteByChild(ctx context.Context, childID int64) error

	// DeleteAll removes every placement edge.
	DeleteAll(ctx context.Context) error
}

// AncestorLinkStore provides access to the ancestor_links closure table.
type AncestorLinkStore interface {
	// Insert adds one closure row. Returns ErrDuplicateKey if the
	// (ancestor, descendant) pair exists.
	Insert(ctx context.Context, l *domain.AncestorLink) error

	// InsertBulk adds multiple closure rows atomically.
	// Fails the entire batch on any duplicate.
	InsertBulk(ctx context.Context, links []*domain.AncestorLink) error

	// AncestorAt retrieves the ancestor exactly depth hops above the
	// descendant. Returns ErrNotFound if the tree is too shallow.
	AncestorAt(ctx context.Context, descendantID int64, depth int) (*domain.AncestorLink, error)

	// ListAncestors retrieves all links for a descendant ordered by depth ASC
	// (the self link first).
	ListAncestors(ctx context.Context, descendantID int64) ([]*domain.AncestorLink, error)

	// ListDescendants retrieves all links below an ancestor (depth >= 1)
	// ordered by depth ASC, then descendant id ASC.
	ListDescendants(ctx context.Context, ancestorID int64) ([]*domain.AncestorLink, error)

	// CountDescendants returns the number of strict descendants (depth >= 1).
	CountDescendants(ctx context.Context, ancestorID int64) (int, error)

	// DeleteByMember removes every closure row naming the member as ancestor
	// or descendant. Intended for removing childless leaves.
	DeleteByMember(ctx context.Context, memberID int64) error

	// DeleteAll removes every closure row.
	DeleteAll(ctx context.Context) error
}

// TransactionStore provides access to transactions storage.
type TransactionStore interface {
	// Insert adds a transaction. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, t *domain.Transaction) error

	// GetByID retrieves a transaction by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// ListByWallet retrieves a wallet's transactions ordered by
	// (payment_time ASC, stream_index ASC).
	ListByWallet(ctx context.Context, wallet string) ([]*domain.Transaction, error)

	// ListAll retrieves every transaction ordered by
	// (payment_time ASC, stream_index ASC).
	ListAll(ctx context.Context) ([]*domain.Transaction, error)

	// DeleteAll removes every transaction.
	DeleteAll(ctx context.Context) error
}

// RewardStore provides access to the append-only rewards ledger.
type RewardStore interface {
	// Insert adds a reward entry. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, r *domain.Reward) error

	// GetByID retrieves a reward by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Reward, error)

	// ListByRecipient retrieves a member's rewards in creation order.
	ListByRecipient(ctx context.Context, recipientID int64) ([]*domain.Reward, error)

	// ListPendingByRecipient retrieves a member's pending rewards of one kind
	// in creation order.
	ListPendingByRecipient(ctx context.Context, recipientID int64, kind domain.RewardKind) ([]*domain.Reward, error)

	// MarkInstant transitions a pending reward to instant. Returns
	// ErrNotFound if the reward does not exist and ErrInvalidInput if it is
	// not pending (the ledger is monotone).
	MarkInstant(ctx context.Context, id string) error

	// ListAll retrieves every reward in creation order.
	ListAll(ctx context.Context) ([]*domain.Reward, error)

	// DeleteAll removes every reward.
	DeleteAll(ctx context.Context) error
}

// LayerCounterStore provides access to per-(upline, layer) ordinal counters.
type LayerCounterStore interface {
	// Increment atomically bumps the counter, creating it at zero on first
	// use, and returns the new value. Calls must be strictly serialized in
	// transaction-processing order.
	Increment(ctx context.Context, uplineID int64, layer int) (int, error)

	// Get returns the current counter value, zero if never incremented.
	Get(ctx context.Context, uplineID int64, layer int) (int, error)

	// ListAll retrieves all counters ordered by (upline_id, layer).
	ListAll(ctx context.Context) ([]*domain.LayerCounter, error)

	// DeleteAll removes every counter.
	DeleteAll(ctx context.Context) error
}

// RewardEventStore is the analytics sink for emitted rewards. It backs
// reporting only; the relational RewardStore stays the system of record.
type RewardEventStore interface {
	// InsertBulk appends reward events. Duplicate ids are rejected.
	InsertBulk(ctx context.Context, rewards []*domain.Reward) error

	// TotalsByKind returns aggregate amounts grouped by (kind, status, currency).
	TotalsByKind(ctx context.Context) ([]*RewardTotal, error)
}

// RewardTotal is one aggregate row of RewardEventStore.TotalsByKind.
type RewardTotal struct {
	Kind     domain.RewardKind
	Status   domain.RewardStatus
	Currency string
	Count    int64
	Amount   float64
}
