package material

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"sitekeeper/internal/core/tx"
	"sitekeeper/internal/domain"
	"sitekeeper/pkg/numerator"
)

// Repository extends the generic catalog contract with stock queries.
type Repository interface {
	domain.CatalogRepository[*Material]
	UpdateCurrentStock(ctx context.Context, materialID int64, stock decimal.Decimal) error
	ListBelowMinimum(ctx context.Context) ([]*Material, error)
}

// Service provides material business logic.
type Service struct {
	*domain.CatalogService[*Material]

	repo Repository
}

// NewService creates the material service. Codes are generated from a
// counter that never resets (MAT-00001).
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Material]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "material",
		}),
		repo: repo,
	}

	s.Hooks().OnBeforeCreate(func(ctx context.Context, m *Material) error {
		if m.Code != "" {
			return nil
		}
		code, err := num.GetNextNumber(ctx, numerator.Config{
			Prefix:      "MAT",
			PadWidth:    5,
			ResetPeriod: "never",
		}, time.Now())
		if err != nil {
			return err
		}
		m.Code = code
		return nil
	})

	return s
}

// ListBelowMinimum returns active materials under their stock minimum.
func (s *Service) ListBelowMinimum(ctx context.Context) ([]*Material, error) {
	return s.repo.ListBelowMinimum(ctx)
}
