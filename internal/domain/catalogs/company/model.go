// Package company provides the Company catalog.
// Companies are business partners: customers, suppliers, subcontractors
// and investors, either persons or organizations.
package company

import (
	"context"
	"regexp"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/entity"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Kind classifies a company as a person or an organization.
type Kind string

const (
	KindPerson       Kind = "person"
	KindOrganization Kind = "organization"
)

// Role defines how the company relates to the business.
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleSupplier      Role = "supplier"
	RoleSubcontractor Role = "subcontractor"
	RoleInvestor      Role = "investor"
)

// Company represents a business partner.
type Company struct {
	entity.Catalog

	Kind Kind `db:"kind" json:"kind"`
	Role Role `db:"role" json:"role"`

	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`
	Phone         *string `db:"phone" json:"phone,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`
	TaxNumber     *string `db:"tax_number" json:"taxNumber,omitempty"`
}

// New creates a Company with required fields.
func New(name string, kind Kind, role Role) *Company {
	return &Company{
		Catalog: entity.NewCatalog("", name),
		Kind:    kind,
		Role:    role,
	}
}

// Validate implements entity.Validatable.
func (c *Company) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch c.Kind {
	case KindPerson, KindOrganization:
	default:
		return apperror.NewValidation("invalid company kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}

	switch c.Role {
	case RoleCustomer, RoleSupplier, RoleSubcontractor, RoleInvestor:
	default:
		return apperror.NewValidation("invalid company role").
			WithDetail("field", "role").
			WithDetail("value", string(c.Role))
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}
