// Package register_repo provides the SQLite implementation of the
// stock ledger repository.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/domain/registers/stock"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

// Compile-time check against the register contract.
var _ stock.Repository = (*StockRepo)(nil)

// StockRepo is the SQLite repository for stock movements.
type StockRepo struct {
	txm  *sqlite.TxManager
	cols []string
}

// NewStockRepo creates a stock ledger repository.
func NewStockRepo(txm *sqlite.TxManager) *StockRepo {
	return &StockRepo{
		txm:  txm,
		cols: sqlite.ExtractDBColumns[stock.Movement](),
	}
}

func (r *StockRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// CreateMovement inserts a ledger entry. A non-zero id is preserved so
// restored snapshots keep their identity.
func (r *StockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	data := sqlite.StructToMap(m)
	assignID := m.ID == 0

	filtered := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if col == "id" && assignID {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	query, args, err := r.builder().
		Insert("stock_movements").
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	if assignID {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		m.ID = id
	}

	r.txm.NotifyMutation()
	return nil
}

// GetMovement retrieves one ledger entry.
func (r *StockRepo) GetMovement(ctx context.Context, id int64) (*stock.Movement, error) {
	query, args, err := r.builder().
		Select(r.cols...).
		From("stock_movements").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	m := &stock.Movement{}
	if err := sqlscan.Get(ctx, r.txm.GetQuerier(), m, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock movement", id)
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// DeleteMovement removes a ledger entry.
func (r *StockRepo) DeleteMovement(ctx context.Context, id int64) error {
	query, args, err := r.builder().
		Delete("stock_movements").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("stock movement", id)
	}

	r.txm.NotifyMutation()
	return nil
}

// ListByMaterial returns the full movement history of a material in
// chronological order. Ties on the date break by insertion order so
// the fold is deterministic.
func (r *StockRepo) ListByMaterial(ctx context.Context, materialID int64) ([]*stock.Movement, error) {
	return r.list(ctx, squirrel.Eq{"material_id": materialID})
}

// ListByMaterialPeriod returns movements within [from, to].
func (r *StockRepo) ListByMaterialPeriod(ctx context.Context, materialID int64, from, to time.Time) ([]*stock.Movement, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"material_id": materialID},
		squirrel.GtOrEq{"move_date": from},
		squirrel.LtOrEq{"move_date": to},
	})
}

func (r *StockRepo) list(ctx context.Context, cond squirrel.Sqlizer) ([]*stock.Movement, error) {
	query, args, err := r.builder().
		Select(r.cols...).
		From("stock_movements").
		Where(cond).
		OrderBy("move_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	var items []*stock.Movement
	if err := sqlscan.Select(ctx, r.txm.GetQuerier(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return items, nil
}
