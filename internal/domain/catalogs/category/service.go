package category

import (
	"context"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/tx"
	"sitekeeper/internal/domain"
)

// Repository is the storage contract for categories.
type Repository interface {
	domain.CatalogRepository[*Category]
}

// Service provides category business logic.
type Service struct {
	*domain.CatalogService[*Category]
}

// NewService creates the category service. Default categories ship with
// the schema; delete and deactivate guards keep them in place.
func NewService(repo Repository, txManager tx.Manager) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "category",
		}),
	}

	s.Hooks().OnBeforeDelete(func(ctx context.Context, c *Category) error {
		if c.IsDefault {
			return apperror.NewBusinessRule("default categories cannot be removed").
				WithDetail("categoryId", c.ID)
		}
		return nil
	})

	return s
}
