package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/shopspring/decimal"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/domain/catalogs/material"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

// MaterialRepo is the SQLite repository for the Material catalog.
type MaterialRepo struct {
	*BaseCatalogRepo[*material.Material]
}

// NewMaterialRepo creates a material repository.
func NewMaterialRepo(txm *sqlite.TxManager) *MaterialRepo {
	return &MaterialRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"materials",
			sqlite.ExtractDBColumns[material.Material](),
			func() *material.Material { return &material.Material{} },
		),
	}
}

// UpdateCurrentStock overwrites the derived stock value. Only the stock
// register calls this; current_stock is never authored directly.
func (r *MaterialRepo) UpdateCurrentStock(ctx context.Context, materialID int64, stock decimal.Decimal) error {
	res, err := r.Tx().GetQuerier().ExecContext(ctx,
		"UPDATE materials SET current_stock = ? WHERE id = ?", stock, materialID)
	if err != nil {
		return fmt.Errorf("update current_stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("materials", materialID)
	}

	r.Tx().NotifyMutation()
	return nil
}

// ListBelowMinimum returns active materials whose current stock is
// under the minimum threshold. Quantities are stored as decimal text,
// so the comparison happens in Go rather than SQL.
func (r *MaterialRepo) ListBelowMinimum(ctx context.Context) ([]*material.Material, error) {
	query, args, err := r.baseSelect().
		Where("is_active = ?", true).
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var all []*material.Material
	if err := sqlscan.Select(ctx, r.Tx().GetQuerier(), &all, query, args...); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}

	var low []*material.Material
	for _, m := range all {
		if m.IsBelowMinimum() {
			low = append(low, m)
		}
	}
	return low, nil
}
