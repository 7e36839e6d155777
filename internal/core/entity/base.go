package entity

import (
	"context"
	"time"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Identifiable is implemented by all persisted entities.
// Row ids are SQLite INTEGER PRIMARY KEY values; the trash/restore
// subsystem relies on ids being re-insertable verbatim.
type Identifiable interface {
	GetID() int64
	SetID(id int64)
}

///////////////////
// Base Entity   //
///////////////////

// Base contains common fields for all entities.
type Base struct {
	// ID is the primary key (SQLite rowid, assigned on first insert)
	ID int64 `db:"id" json:"id"`

	// IsActive indicates the entity is in use; cleared by deactivation
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewBase creates a Base in the active state. The id stays zero until
// the repository inserts the row.
func NewBase() Base {
	return Base{IsActive: true}
}

// GetID implements Identifiable.
func (b *Base) GetID() int64 { return b.ID }

// SetID implements Identifiable.
func (b *Base) SetID(id int64) { b.ID = id }

// Deactivate clears the active flag.
func (b *Base) Deactivate() { b.IsActive = false }

// Activate sets the active flag.
func (b *Base) Activate() { b.IsActive = true }

///////////////
// Documents //
///////////////

// Document extends Base with audit timestamps for ledger-style rows
// (financial transactions, stock movements).
type Document struct {
	Base

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewDocument creates a new Document with timestamps set to now.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		Base:      NewBase(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
}
