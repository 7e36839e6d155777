// Package report_repo provides the SQLite implementation of report
// queries. Read-only: nothing here notifies the mutation tracker.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/shopspring/decimal"

	"sitekeeper/internal/domain/reports"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo runs aggregate queries over the live store.
type ReportRepo struct {
	txm *sqlite.TxManager
}

// NewReportRepo creates a report repository.
func NewReportRepo(txm *sqlite.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

func (r *ReportRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// GetProjectFinanceReport sums home-currency amounts per project.
// Amounts are stored as decimal text, so the aggregation happens in Go
// rather than SQL.
func (r *ReportRepo) GetProjectFinanceReport(ctx context.Context, filter reports.ProjectFinanceFilter) (*reports.ProjectFinanceReport, error) {
	q := r.builder().
		Select("p.id AS project_id", "p.code AS project_code", "p.name AS project_name",
			"t.type", "t.home_amount").
		From("projects p").
		LeftJoin("transactions t ON t.project_id = p.id").
		Where(squirrel.Eq{"p.is_active": true}).
		OrderBy("p.code")

	if len(filter.ProjectIDs) > 0 {
		q = q.Where(squirrel.Eq{"p.id": filter.ProjectIDs})
	}
	if !filter.FromDate.IsZero() {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"t.id": nil},
			squirrel.GtOrEq{"t.tx_date": filter.FromDate},
		})
	}
	if !filter.ToDate.IsZero() {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"t.id": nil},
			squirrel.LtOrEq{"t.tx_date": filter.ToDate},
		})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	type row struct {
		ProjectID   int64   `db:"project_id"`
		ProjectCode string  `db:"project_code"`
		ProjectName string  `db:"project_name"`
		Type        *string `db:"type"`
		HomeAmount  *string `db:"home_amount"`
	}
	var rows []row
	if err := sqlscan.Select(ctx, r.txm.GetQuerier(), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("project finance query: %w", err)
	}

	byProject := make(map[int64]*reports.ProjectFinanceItem)
	var order []int64
	for _, rw := range rows {
		item, ok := byProject[rw.ProjectID]
		if !ok {
			item = &reports.ProjectFinanceItem{
				ProjectID:   rw.ProjectID,
				ProjectCode: rw.ProjectCode,
				ProjectName: rw.ProjectName,
			}
			byProject[rw.ProjectID] = item
			order = append(order, rw.ProjectID)
		}
		if rw.Type == nil || rw.HomeAmount == nil {
			continue // project without transactions
		}
		amount, err := decimal.NewFromString(*rw.HomeAmount)
		if err != nil {
			return nil, fmt.Errorf("parse home_amount %q: %w", *rw.HomeAmount, err)
		}
		switch *rw.Type {
		case "invoice_out", "payment_in":
			item.Income = item.Income.Add(amount)
		default:
			item.Expense = item.Expense.Add(amount)
		}
	}

	// Totals fold over the full filtered set; pagination only windows
	// the item list.
	report := &reports.ProjectFinanceReport{GeneratedAt: time.Now().UTC()}
	offset := filter.Offset
	for i, id := range order {
		item := byProject[id]
		item.Net = item.Income.Sub(item.Expense)
		report.TotalIncome = report.TotalIncome.Add(item.Income)
		report.TotalSpent = report.TotalSpent.Add(item.Expense)

		if i < offset {
			continue
		}
		if filter.Limit > 0 && len(report.Items) >= filter.Limit {
			continue
		}
		report.Items = append(report.Items, *item)
	}
	return report, nil
}

// GetStockBalanceReport lists materials with their derived on-hand
// quantity.
func (r *ReportRepo) GetStockBalanceReport(ctx context.Context, filter reports.StockBalanceFilter) (*reports.StockBalanceReport, error) {
	q := r.builder().
		Select("id AS material_id", "code AS material_code", "name AS material_name",
			"unit", "current_stock AS on_hand", "min_stock").
		From("materials").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("code")

	if len(filter.MaterialIDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.MaterialIDs})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []reports.StockBalanceItem
	if err := sqlscan.Select(ctx, r.txm.GetQuerier(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("stock balance query: %w", err)
	}

	report := &reports.StockBalanceReport{GeneratedAt: time.Now().UTC()}
	offset := filter.Offset
	kept := 0
	for _, item := range items {
		item.BelowMinimum = item.OnHand.LessThan(item.MinStock)
		if filter.ExcludeZero && item.OnHand.IsZero() {
			continue
		}
		if filter.BelowMinimumOnly && !item.BelowMinimum {
			continue
		}
		kept++
		if kept <= offset {
			continue
		}
		if filter.Limit > 0 && len(report.Items) >= filter.Limit {
			break
		}
		report.Items = append(report.Items, item)
	}
	return report, nil
}
