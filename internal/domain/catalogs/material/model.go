// Package material provides the Material catalog.
package material

import (
	"context"

	"github.com/shopspring/decimal"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/entity"
)

// Material represents an inventory item.
//
// CurrentStock is a derived value: it always equals the fold of the
// material's stock movements and is never authored directly. The stock
// register service overwrites it after every movement change.
type Material struct {
	entity.Catalog

	Unit         string          `db:"unit" json:"unit"`
	MinStock     decimal.Decimal `db:"min_stock" json:"minStock"`
	CurrentStock decimal.Decimal `db:"current_stock" json:"currentStock"`
}

// New creates a Material with required fields. Code is generated by the
// numerator before save (MAT-00001).
func New(name, unit string, minStock decimal.Decimal) *Material {
	return &Material{
		Catalog:  entity.NewCatalog("", name),
		Unit:     unit,
		MinStock: minStock,
	}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}
	if m.Unit == "" {
		return apperror.NewValidation("unit is required").WithDetail("field", "unit")
	}
	if m.MinStock.IsNegative() {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minStock")
	}
	return nil
}

// IsBelowMinimum reports whether current stock is under the threshold.
func (m *Material) IsBelowMinimum() bool {
	return m.CurrentStock.LessThan(m.MinStock)
}
