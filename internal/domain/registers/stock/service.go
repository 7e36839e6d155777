package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/tx"
	"sitekeeper/pkg/logger"
)

// Service provides business operations for the stock ledger.
//
// Fold rule: current stock is the sum of signed movement deltas in
// chronological order - receipts add, issues and waste subtract, and an
// adjustment contributes its signed quantity as a correction delta.
// The rule is applied uniformly: inserts, deletes and restores all go
// through Recompute over the full history, so deleting an adjustment
// simply removes its delta like any other movement.
type Service struct {
	repo      Repository
	materials MaterialStock
	txManager tx.Manager
}

// NewService creates a stock ledger service.
func NewService(repo Repository, materials MaterialStock, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		materials: materials,
		txManager: txManager,
	}
}

// RecordMovement validates and inserts a movement, then recomputes the
// material's derived stock - both inside one transaction.
func (s *Service) RecordMovement(ctx context.Context, m *Movement) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.materials.Exists(ctx, m.MaterialID)
	if err != nil {
		return fmt.Errorf("check material: %w", err)
	}
	if !exists {
		return apperror.NewNotFound("material", m.MaterialID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateMovement(ctx, m); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return s.Recompute(ctx, m.MaterialID)
	})
	if err != nil {
		return err
	}

	logger.Debug(ctx, "recorded stock movement",
		"material_id", m.MaterialID,
		"kind", m.Kind,
		"quantity", m.Quantity,
	)
	return nil
}

// DeleteMovement removes a movement and recomputes the material's stock
// from the remaining history, inside one transaction.
func (s *Service) DeleteMovement(ctx context.Context, id int64) error {
	m, err := s.repo.GetMovement(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteMovement(ctx, id); err != nil {
			return fmt.Errorf("delete movement: %w", err)
		}
		return s.Recompute(ctx, m.MaterialID)
	})
}

// GetMovement retrieves one ledger entry.
func (s *Service) GetMovement(ctx context.Context, id int64) (*Movement, error) {
	return s.repo.GetMovement(ctx, id)
}

// History returns the full movement history of a material.
func (s *Service) History(ctx context.Context, materialID int64) ([]*Movement, error) {
	return s.repo.ListByMaterial(ctx, materialID)
}

// HistoryBetween returns a material's movements within [from, to].
func (s *Service) HistoryBetween(ctx context.Context, materialID int64, from, to time.Time) ([]*Movement, error) {
	if to.Before(from) {
		return nil, apperror.NewValidation("period end is before its start").
			WithDetail("field", "to")
	}
	return s.repo.ListByMaterialPeriod(ctx, materialID, from, to)
}

// Recompute folds the material's full movement history into a scalar
// and overwrites the derived current_stock. Invoked after every
// movement insert, delete, and trash restore.
func (s *Service) Recompute(ctx context.Context, materialID int64) error {
	movements, err := s.repo.ListByMaterial(ctx, materialID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Delta())
	}

	if err := s.materials.UpdateCurrentStock(ctx, materialID, total); err != nil {
		return fmt.Errorf("update current stock: %w", err)
	}
	return nil
}
