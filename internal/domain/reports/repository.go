package reports

import (
	"context"
)

// Repository defines report data access.
type Repository interface {
	GetProjectFinanceReport(ctx context.Context, filter ProjectFinanceFilter) (*ProjectFinanceReport, error)
	GetStockBalanceReport(ctx context.Context, filter StockBalanceFilter) (*StockBalanceReport, error)
}
