// Package tx provides transaction management abstractions.
// This package defines interfaces that decouple domain logic from the
// concrete storage implementation in infrastructure/storage/sqlite.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
//
// Domain services depend on this interface, not concrete implementations.
type Manager interface {
	// RunInTransaction executes fn within a store transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed and the store
	// is flushed to disk.
	//
	// Nested calls are absorbed into the already-open transaction:
	// the outer transaction owns atomicity.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Coordinator exposes the explicit transaction lifecycle on top of
// Manager. The whole store is one shared resource; the coordinator is
// the sole mutual-exclusion mechanism and is non-reentrant.
type Coordinator interface {
	Manager

	// Begin opens a transaction. A no-op if one is already open.
	Begin(ctx context.Context) error

	// Commit finalizes the open transaction and forces a synchronous
	// flush of the in-memory state to disk.
	Commit(ctx context.Context) error

	// Rollback reverts the open transaction without flushing.
	Rollback(ctx context.Context) error

	// InTransaction reports whether a transaction is currently open.
	InTransaction() bool
}
