// Package document_repo provides SQLite repositories for ledger-style
// documents.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/domain/documents/transaction"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

var _ transaction.Repository = (*TransactionRepo)(nil)

// TransactionRepo is the SQLite repository for financial transactions.
type TransactionRepo struct {
	txm  *sqlite.TxManager
	cols []string
}

// NewTransactionRepo creates a transaction repository.
func NewTransactionRepo(txm *sqlite.TxManager) *TransactionRepo {
	return &TransactionRepo{
		txm:  txm,
		cols: sqlite.ExtractDBColumns[transaction.Transaction](),
	}
}

func (r *TransactionRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// Create inserts a transaction. A zero id is assigned by the store and
// written back; a non-zero id is preserved for the restore path.
func (r *TransactionRepo) Create(ctx context.Context, t *transaction.Transaction) error {
	data := sqlite.StructToMap(t)
	assignID := t.ID == 0

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
		Insert("transactions").
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if assignID {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		t.ID = id
	}

	r.txm.NotifyMutation()
	return nil
}

// GetByID retrieves a transaction.
func (r *TransactionRepo) GetByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	query, args, err := r.builder().
		Select(r.cols...).
		From("transactions").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	t := &transaction.Transaction{}
	if err := sqlscan.Get(ctx, r.txm.GetQuerier(), t, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", id)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Update modifies a transaction. The monetary snapshot columns travel
// with the row; they are never recomputed here.
func (r *TransactionRepo) Update(ctx context.Context, t *transaction.Transaction) error {
	data := sqlite.StructToMap(t)
	filtered := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if col == "id" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	query, args, err := r.builder().
		Update("transactions").
		SetMap(filtered).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("transaction", t.ID)
	}

	r.txm.NotifyMutation()
	return nil
}

// Delete removes a transaction row.
func (r *TransactionRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := r.builder().
		Delete("transactions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("transaction", id)
	}

	r.txm.NotifyMutation()
	return nil
}

// List returns transactions matching the filter, newest first.
func (r *TransactionRepo) List(ctx context.Context, f transaction.Filter) ([]*transaction.Transaction, error) {
	q := r.builder().
		Select(r.cols...).
		From("transactions").
		OrderBy("tx_date DESC", "id DESC")

	if f.ProjectID != nil {
		q = q.Where(squirrel.Eq{"project_id": *f.ProjectID})
	}
	if f.CompanyID != nil {
		q = q.Where(squirrel.Eq{"company_id": *f.CompanyID})
	}
	if f.Type != nil {
		q = q.Where(squirrel.Eq{"type": *f.Type})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"tx_date": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"tx_date": *f.ToDate})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	var items []*transaction.Transaction
	if err := sqlscan.Select(ctx, r.txm.GetQuerier(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}
