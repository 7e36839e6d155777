// Package stock provides the stock ledger: the append-only movement
// history from which each material's on-hand quantity is derived.
package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/entity"
)

// Kind is the movement direction.
type Kind string

const (
	KindIn         Kind = "in"
	KindOut        Kind = "out"
	KindAdjustment Kind = "adjustment"
	KindWaste      Kind = "waste"
)

// Movement is one stock ledger entry.
//
// The ordered movement history of a material is the single source of
// truth for its current stock; see Service.Recompute for the fold rule.
type Movement struct {
	entity.Document

	MaterialID int64           `db:"material_id" json:"materialId"`
	Kind       Kind            `db:"kind" json:"kind"`
	Quantity   decimal.Decimal `db:"quantity" json:"quantity"`
	MoveDate   time.Time       `db:"move_date" json:"moveDate"`

	ProjectID *int64  `db:"project_id" json:"projectId,omitempty"`
	CompanyID *int64  `db:"company_id" json:"companyId,omitempty"`
	Note      *string `db:"note" json:"note,omitempty"`
}

// NewMovement creates a Movement for a material.
func NewMovement(materialID int64, kind Kind, quantity decimal.Decimal, moveDate time.Time) *Movement {
	return &Movement{
		Document:   entity.NewDocument(),
		MaterialID: materialID,
		Kind:       kind,
		Quantity:   quantity,
		MoveDate:   moveDate,
	}
}

// Delta returns the movement's signed contribution to current stock:
// receipts add, issues and waste subtract, adjustments carry their own
// sign as a correction.
func (m *Movement) Delta() decimal.Decimal {
	switch m.Kind {
	case KindOut, KindWaste:
		return m.Quantity.Neg()
	default: // in, adjustment
		return m.Quantity
	}
}

// Validate implements entity.Validatable.
func (m *Movement) Validate(ctx context.Context) error {
	if m.MaterialID == 0 {
		return apperror.NewValidation("material is required").WithDetail("field", "materialId")
	}

	switch m.Kind {
	case KindIn, KindOut, KindAdjustment, KindWaste:
	default:
		return apperror.NewValidation("invalid movement kind").
			WithDetail("field", "kind").
			WithDetail("value", string(m.Kind))
	}

	// Adjustments may be negative corrections; everything else must be
	// a positive quantity.
	if m.Kind != KindAdjustment && !m.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	if m.MoveDate.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "moveDate")
	}

	return nil
}
