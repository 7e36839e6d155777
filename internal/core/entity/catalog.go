package entity

import (
	"context"

	"sitekeeper/internal/core/apperror"
)

// Catalog is the base type for reference data.
// Examples: Companies, Projects, Materials, Categories.
type Catalog struct {
	Base

	// Code is a human-readable identifier (unique per table,
	// usually generated by the numerator)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog. Code may be empty at creation time;
// the owning service generates one before save.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		Base: NewBase(),
		Code: code,
		Name: name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
