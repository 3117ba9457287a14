package domain

// MaxChildren is the ternary tree capacity per parent.
const MaxChildren = 3

// PlacementEdge represents a parent/child link in the placement tree.
// Corresponds to placement_edges table in PostgreSQL.
// Exactly one parent per child; at most MaxChildren children per parent;
// slot values are unique per parent. Immutable once created.
type PlacementEdge struct {
	ParentID  int64
	ChildID   int64
	Slot      int // 1..3
	CreatedAt int64
}

// AncestorLink is one row of the materialized closure table.
// Corresponds to ancestor_links table in PostgreSQL.
// Every member carries a depth-0 self link; for every placement edge (p, c)
// and every link (a, p, d) there is a link (a, c, d+1).
type AncestorLink struct {
	AncestorID   int64
	DescendantID int64
	Depth        int // 0 = self
}
