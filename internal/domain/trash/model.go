// Package trash provides the soft-delete/restore lifecycle: entities
// are snapshotted into the trash before destructive deletion and can be
// reconstructed later with their original ids intact.
package trash

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityType tags a trash snapshot with the table it came from.
type EntityType string

const (
	EntityCompany       EntityType = "company"
	EntityProject       EntityType = "project"
	EntityTransaction   EntityType = "transaction"
	EntityMaterial      EntityType = "material"
	EntityCategory      EntityType = "category"
	EntityStockMovement EntityType = "stock_movement"
)

// AllEntityTypes lists every restorable entity type. The service
// refuses to start with a handler missing for any of these.
var AllEntityTypes = []EntityType{
	EntityCompany,
	EntityProject,
	EntityTransaction,
	EntityMaterial,
	EntityCategory,
	EntityStockMovement,
}

// Item is one trash envelope: a point-in-time JSON snapshot of an
// entity taken at deletion time.
type Item struct {
	ID         string          `db:"id" json:"id"`
	EntityType EntityType      `db:"entity_type" json:"entityType"`
	EntityID   int64           `db:"entity_id" json:"entityId"`
	Data       json.RawMessage `db:"data" json:"data"`
	DeletedAt  time.Time       `db:"deleted_at" json:"deletedAt"`
}

// NewItem creates an envelope for a snapshot taken now.
func NewItem(entityType EntityType, entityID int64, data json.RawMessage) *Item {
	return &Item{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Data:       data,
		DeletedAt:  time.Now().UTC(),
	}
}
