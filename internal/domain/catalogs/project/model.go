// Package project provides the Project catalog and project party
// memberships.
package project

import (
	"context"

	"github.com/shopspring/decimal"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/entity"
)

// Status is the project lifecycle state.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Ownership says whether the project is built for the business itself
// or for a client.
type Ownership string

const (
	OwnershipOwn    Ownership = "own"
	OwnershipClient Ownership = "client"
)

// Project represents a construction project.
// Code is generated per year (PRJ-2026-0001) by the numerator.
type Project struct {
	entity.Catalog

	Status    Status          `db:"status" json:"status"`
	Ownership Ownership       `db:"ownership" json:"ownership"`
	Budget    decimal.Decimal `db:"budget" json:"budget"`

	// ClientID links the owning customer; nulled when that company is
	// deleted (ON DELETE SET NULL).
	ClientID *int64 `db:"client_id" json:"clientId,omitempty"`
}

// New creates a Project with required fields.
func New(name string, ownership Ownership, budget decimal.Decimal) *Project {
	return &Project{
		Catalog:   entity.NewCatalog("", name),
		Status:    StatusPlanned,
		Ownership: ownership,
		Budget:    budget,
	}
}

// Validate implements entity.Validatable.
func (p *Project) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Status {
	case StatusPlanned, StatusActive, StatusCompleted, StatusCancelled:
	default:
		return apperror.NewValidation("invalid project status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}

	switch p.Ownership {
	case OwnershipOwn, OwnershipClient:
	default:
		return apperror.NewValidation("invalid ownership kind").
			WithDetail("field", "ownership").
			WithDetail("value", string(p.Ownership))
	}

	if p.Budget.IsNegative() {
		return apperror.NewValidation("budget cannot be negative").
			WithDetail("field", "budget")
	}

	return nil
}

// PartyRole is the role a company plays on a project.
type PartyRole string

const (
	PartyCustomer      PartyRole = "customer"
	PartySupplier      PartyRole = "supplier"
	PartySubcontractor PartyRole = "subcontractor"
	PartyInvestor      PartyRole = "investor"
)

// Party associates a company with a project under a role.
// The (project, company, role) triple is unique.
type Party struct {
	ID        int64     `db:"id" json:"id"`
	ProjectID int64     `db:"project_id" json:"projectId"`
	CompanyID int64     `db:"company_id" json:"companyId"`
	Role      PartyRole `db:"role" json:"role"`
}

// Validate checks party invariants.
func (p *Party) Validate(ctx context.Context) error {
	if p.ProjectID == 0 {
		return apperror.NewValidation("project is required").WithDetail("field", "projectId")
	}
	if p.CompanyID == 0 {
		return apperror.NewValidation("company is required").WithDetail("field", "companyId")
	}
	switch p.Role {
	case PartyCustomer, PartySupplier, PartySubcontractor, PartyInvestor:
	default:
		return apperror.NewValidation("invalid party role").
			WithDetail("field", "role").
			WithDetail("value", string(p.Role))
	}
	return nil
}
