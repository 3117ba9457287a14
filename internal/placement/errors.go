package placement

import "errors"

// ErrNoFreeSlot is returned when a subtree has no node with an open child
// slot. With unbounded depth this cannot happen for a consistent tree.
var ErrNoFreeSlot = errors.New("no free slot in subtree")

// ErrHasChildren is returned when removing a member that still has placed
// children.
var ErrHasChildren = errors.New("member has placed children")
