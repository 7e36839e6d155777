package project

import (
	"context"
	"time"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/tx"
	"sitekeeper/internal/domain"
	"sitekeeper/pkg/numerator"
)

// Repository extends the generic catalog contract with project queries
// and party memberships.
type Repository interface {
	domain.CatalogRepository[*Project]
	ListByStatus(ctx context.Context, status Status) ([]*Project, error)
	AddParty(ctx context.Context, p *Party) error
	RemoveParty(ctx context.Context, partyID int64) error
	ListParties(ctx context.Context, projectID int64) ([]*Party, error)
}

// CompanyChecker verifies a company exists before linking it to a
// project.
type CompanyChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service provides project business logic.
type Service struct {
	*domain.CatalogService[*Project]

	repo      Repository
	companies CompanyChecker
	txManager tx.Manager
}

// NewService creates the project service. Codes are generated per year
// (PRJ-2026-0001) when none was supplied.
func NewService(repo Repository, companies CompanyChecker, txManager tx.Manager, num *numerator.Service) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Project]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "project",
		}),
		repo:      repo,
		companies: companies,
		txManager: txManager,
	}

	s.Hooks().OnBeforeCreate(func(ctx context.Context, p *Project) error {
		if p.Code != "" {
			return nil
		}
		code, err := num.GetNextNumber(ctx, numerator.Config{
			Prefix:      "PRJ",
			IncludeYear: true,
			PadWidth:    4,
			ResetPeriod: "year",
		}, time.Now())
		if err != nil {
			return err
		}
		p.Code = code
		return nil
	})

	return s
}

// ListByStatus returns active projects in the given status.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Project, error) {
	return s.repo.ListByStatus(ctx, status)
}

// AddParty links a company to a project under a role.
func (s *Service) AddParty(ctx context.Context, p *Party) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	ok, err := s.repo.Exists(ctx, p.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound("project", p.ProjectID)
	}

	ok, err = s.companies.Exists(ctx, p.CompanyID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound("company", p.CompanyID)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.AddParty(ctx, p)
	})
}

// RemoveParty unlinks a membership.
func (s *Service) RemoveParty(ctx context.Context, partyID int64) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.RemoveParty(ctx, partyID)
	})
}

// ListParties returns all memberships of a project.
func (s *Service) ListParties(ctx context.Context, projectID int64) ([]*Party, error) {
	return s.repo.ListParties(ctx, projectID)
}
