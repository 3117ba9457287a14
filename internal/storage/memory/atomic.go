package memory

import (
	"context"

	"matrix-ledger/internal/storage"
)

// Atomic is a passthrough transaction wrapper for the in-memory stores.
// Each store serializes its own writes with a mutex; there is no multi-store
// rollback, so fn must not rely on partial writes being undone.
type Atomic struct{}

// NewAtomic creates a new Atomic.
func NewAtomic() *Atomic {
	return &Atomic{}
}

// Compile-time interface check.
var _ storage.Atomic = (*Atomic)(nil)

// WithinTx runs fn directly.
func (a *Atomic) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
