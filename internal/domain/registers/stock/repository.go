package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines operations for the stock ledger.
type Repository interface {
	// CreateMovement inserts a movement. A non-zero id is preserved
	// (the trash/restore path re-inserts snapshots verbatim).
	CreateMovement(ctx context.Context, m *Movement) error

	// GetMovement retrieves one movement.
	GetMovement(ctx context.Context, id int64) (*Movement, error)

	// DeleteMovement removes a movement from the ledger.
	DeleteMovement(ctx context.Context, id int64) error

	// ListByMaterial returns the full movement history of a material in
	// chronological order (date, then insertion order).
	ListByMaterial(ctx context.Context, materialID int64) ([]*Movement, error)

	// ListByMaterialPeriod returns movements within [from, to].
	ListByMaterialPeriod(ctx context.Context, materialID int64, from, to time.Time) ([]*Movement, error)
}

// MaterialStock is the slice of the material catalog the register
// needs: reading and overwriting the derived current_stock value.
type MaterialStock interface {
	Exists(ctx context.Context, id int64) (bool, error)
	UpdateCurrentStock(ctx context.Context, materialID int64, stock decimal.Decimal) error
}
