package trash

import "context"

// Repository defines storage operations for trash envelopes.
type Repository interface {
	// Insert stores an envelope.
	Insert(ctx context.Context, item *Item) error

	// GetByID retrieves an envelope.
	GetByID(ctx context.Context, id string) (*Item, error)

	// Delete removes an envelope (restore consumed it, or purge).
	Delete(ctx context.Context, id string) error

	// List returns all envelopes, newest deletion first.
	List(ctx context.Context) ([]*Item, error)
}
