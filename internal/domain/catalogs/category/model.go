// Package category provides the transaction Category catalog.
package category

import (
	"context"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/entity"
)

// Kind classifies a category.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Category classifies financial transactions.
// Default categories ship with the schema and cannot be deleted.
type Category struct {
	entity.Catalog

	Kind      Kind `db:"kind" json:"kind"`
	IsDefault bool `db:"is_default" json:"isDefault"`
}

// New creates a non-default Category.
func New(name string, kind Kind) *Category {
	return &Category{
		Catalog: entity.NewCatalog("", name),
		Kind:    kind,
	}
}

// Validate implements entity.Validatable.
func (c *Category) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch c.Kind {
	case KindIncome, KindExpense:
	default:
		return apperror.NewValidation("invalid category kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}
	return nil
}
