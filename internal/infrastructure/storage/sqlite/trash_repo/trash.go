// Package trash_repo provides the SQLite implementation of the trash
// envelope repository.
package trash_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/domain/trash"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

var _ trash.Repository = (*TrashRepo)(nil)

// TrashRepo stores trash envelopes in the trash_items table.
type TrashRepo struct {
	txm  *sqlite.TxManager
	cols []string
}

// NewTrashRepo creates a trash repository.
func NewTrashRepo(txm *sqlite.TxManager) *TrashRepo {
	return &TrashRepo{
		txm:  txm,
		cols: sqlite.ExtractDBColumns[trash.Item](),
	}
}

func (r *TrashRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// Insert stores an envelope.
func (r *TrashRepo) Insert(ctx context.Context, item *trash.Item) error {
	data := sqlite.StructToMap(item)
	filtered := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	query, args, err := r.builder().
		Insert("trash_items").
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert trash item: %w", err)
	}

	r.txm.NotifyMutation()
	return nil
}

// GetByID retrieves an envelope.
func (r *TrashRepo) GetByID(ctx context.Context, id string) (*trash.Item, error) {
	query, args, err := r.builder().
		Select(r.cols...).
		From("trash_items").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	item := &trash.Item{}
	if err := sqlscan.Get(ctx, r.txm.GetQuerier(), item, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, apperror.NewNotFound("trash item", id)
		}
		return nil, fmt.Errorf("get trash item: %w", err)
	}
	return item, nil
}

// Delete removes an envelope.
func (r *TrashRepo) Delete(ctx context.Context, id string) error {
	query, args, err := r.builder().
		Delete("trash_items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete trash item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("trash item", id)
	}

	r.txm.NotifyMutation()
	return nil
}

// List returns all envelopes, newest deletion first.
func (r *TrashRepo) List(ctx context.Context) ([]*trash.Item, error) {
	query, args, err := r.builder().
		Select(r.cols...).
		From("trash_items").
		OrderBy("deleted_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	var items []*trash.Item
	if err := sqlscan.Select(ctx, r.txm.GetQuerier(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list trash items: %w", err)
	}
	return items, nil
}
