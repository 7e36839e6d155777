package reports

import (
	"context"
	"fmt"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetProjectFinance generates the per-project income/expense report.
func (s *Service) GetProjectFinance(ctx context.Context, filter ProjectFinanceFilter) (*ProjectFinanceReport, error) {
	if !filter.FromDate.IsZero() && !filter.ToDate.IsZero() && filter.FromDate.After(filter.ToDate) {
		return nil, fmt.Errorf("fromDate must be before toDate")
	}

	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetProjectFinanceReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get project finance report: %w", err)
	}
	return report, nil
}

// GetStockBalance generates the material on-hand report.
func (s *Service) GetStockBalance(ctx context.Context, filter StockBalanceFilter) (*StockBalanceReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetStockBalanceReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get stock balance report: %w", err)
	}
	return report, nil
}
