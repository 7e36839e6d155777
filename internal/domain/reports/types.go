// Package reports provides read-only report generation. Reports
// consume query results and never trigger writes.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Project Finance Report ---

// ProjectFinanceFilter defines filters for the project finance report.
type ProjectFinanceFilter struct {
	// ProjectIDs narrows the report; empty means all active projects.
	ProjectIDs []int64

	// Period bounds on transaction date (inclusive); zero means open.
	FromDate time.Time
	ToDate   time.Time

	// Pagination
	Limit  int
	Offset int
}

// ProjectFinanceItem is one project row: sums over home-currency
// amounts, so mixed-currency histories aggregate cleanly.
type ProjectFinanceItem struct {
	ProjectID   int64           `db:"project_id" json:"projectId"`
	ProjectCode string          `db:"project_code" json:"projectCode"`
	ProjectName string          `db:"project_name" json:"projectName"`
	Income      decimal.Decimal `db:"income" json:"income"`
	Expense     decimal.Decimal `db:"expense" json:"expense"`
	Net         decimal.Decimal `db:"net" json:"net"`
}

// ProjectFinanceReport is the full report payload. Totals cover every
// project matching the filter, not just the paginated window.
type ProjectFinanceReport struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Items       []ProjectFinanceItem `json:"items"`
	TotalIncome decimal.Decimal      `json:"totalIncome"`
	TotalSpent  decimal.Decimal      `json:"totalExpense"`
}

// --- Stock Balance Report ---

// StockBalanceFilter defines filters for the stock balance report.
type StockBalanceFilter struct {
	MaterialIDs []int64

	// ExcludeZero drops materials with zero on-hand quantity.
	ExcludeZero bool

	// BelowMinimumOnly keeps only materials under their threshold.
	BelowMinimumOnly bool

	Limit  int
	Offset int
}

// StockBalanceItem is one material row.
type StockBalanceItem struct {
	MaterialID   int64           `db:"material_id" json:"materialId"`
	MaterialCode string          `db:"material_code" json:"materialCode"`
	MaterialName string          `db:"material_name" json:"materialName"`
	Unit         string          `db:"unit" json:"unit"`
	OnHand       decimal.Decimal `db:"on_hand" json:"onHand"`
	MinStock     decimal.Decimal `db:"min_stock" json:"minStock"`
	BelowMinimum bool            `db:"-" json:"belowMinimum"`
}

// StockBalanceReport is the full report payload.
type StockBalanceReport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Items       []StockBalanceItem `json:"items"`
}
