package company

import (
	"context"
	"time"

	"sitekeeper/internal/core/tx"
	"sitekeeper/internal/domain"
	"sitekeeper/pkg/numerator"
)

// Repository extends the generic catalog contract with company queries.
type Repository interface {
	domain.CatalogRepository[*Company]
	ListByRole(ctx context.Context, role Role) ([]*Company, error)
}

// Service provides company business logic.
type Service struct {
	*domain.CatalogService[*Company]

	repo Repository
}

// NewService creates the company service. A create hook fills in a
// generated code (CMP-00001) when none was supplied.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Company]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "company",
		}),
		repo: repo,
	}

	s.Hooks().OnBeforeCreate(func(ctx context.Context, c *Company) error {
		if c.Code != "" {
			return nil
		}
		code, err := num.GetNextNumber(ctx, numerator.Config{
			Prefix:      "CMP",
			PadWidth:    5,
			ResetPeriod: "never",
		}, time.Now())
		if err != nil {
			return err
		}
		c.Code = code
		return nil
	})

	return s
}

// ListByRole returns active companies with the given role.
func (s *Service) ListByRole(ctx context.Context, role Role) ([]*Company, error) {
	return s.repo.ListByRole(ctx, role)
}
