// Package catalog_repo provides SQLite implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/domain"
	"sitekeeper/internal/infrastructure/storage/sqlite"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T domain.Entity] struct {
	txm        *sqlite.TxManager
	tableName  string
	selectCols []string
	newFn      func() T
}

// NewBaseCatalogRepo creates a new base catalog repository bound to the
// store's coordinator.
func NewBaseCatalogRepo[T domain.Entity](
	txm *sqlite.TxManager,
	tableName string,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with SQLite placeholders.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// Tx returns the coordinator the repo is bound to.
func (r *BaseCatalogRepo[T]) Tx() *sqlite.TxManager {
	return r.txm
}

// Create inserts a new entity using its "db" tags. A zero id is
// assigned by the store and written back; a non-zero id is inserted
// verbatim so restored rows keep their original identity.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := sqlite.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	assignID := entity.GetID() == 0

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" && assignID {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(filteredData)

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}

	if assignID {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		entity.SetID(id)
	}

	r.txm.NotifyMutation()
	return nil
}

// Update modifies an existing entity.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	data := sqlite.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID := entity.GetID()
	if entityID == 0 {
		return fmt.Errorf("entity has no id")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" {
			continue // never update ID
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(filteredData).
		Where(squirrel.Eq{"id": entityID})

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound(r.tableName, entityID)
	}

	r.txm.NotifyMutation()
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID int64) (T, error) {
	entity := r.newFn()

	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)

	query, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := sqlscan.Get(ctx, r.txm.GetQuerier(), entity, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, entityID)
		}
		return entity, fmt.Errorf("get by id: %w", err)
	}

	return entity, nil
}

// GetByCode retrieves entity by code.
func (r *BaseCatalogRepo[T]) GetByCode(ctx context.Context, code string) (T, error) {
	entity := r.newFn()

	q := r.baseSelect().
		Where(squirrel.Eq{"code": code}).
		Limit(1)

	query, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := sqlscan.Get(ctx, r.txm.GetQuerier(), entity, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, code)
		}
		return entity, fmt.Errorf("get by code: %w", err)
	}

	return entity, nil
}

// Delete removes the row. The trash subsystem snapshots the entity
// before calling this; nothing here is recoverable on its own.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID int64) error {
	q := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID})

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound(r.tableName, entityID)
	}

	r.txm.NotifyMutation()
	return nil
}

// SetActive sets or clears the active flag.
func (r *BaseCatalogRepo[T]) SetActive(ctx context.Context, entityID int64, active bool) error {
	q := r.Builder().
		Update(r.tableName).
		Set("is_active", active).
		Where(squirrel.Eq{"id": entityID})

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.txm.GetQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set active %s: %w", r.tableName, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound(r.tableName, entityID)
	}

	r.txm.NotifyMutation()
	return nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()
	countQ := r.Builder().Select("COUNT(*)").From(r.tableName)

	if !filter.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
		countQ = countQ.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		cond := squirrel.Or{
			squirrel.Like{"name": like},
			squirrel.Like{"code": like},
		}
		q = q.Where(cond)
		countQ = countQ.Where(cond)
	}

	if order := r.orderClause(filter.OrderBy); order != "" {
		q = q.OrderBy(order)
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build list: %w", err)
	}

	var items []T
	if err := sqlscan.Select(ctx, r.txm.GetQuerier(), &items, query, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	result.Items = items

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	row := r.txm.GetQuerier().QueryRowContext(ctx, countSQL, countArgs...)
	if err := row.Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	return result, nil
}

// orderClause validates OrderBy against known columns ("-col" = DESC).
func (r *BaseCatalogRepo[T]) orderClause(orderBy string) string {
	if orderBy == "" {
		return ""
	}
	col := orderBy
	desc := false
	if strings.HasPrefix(col, "-") {
		col = col[1:]
		desc = true
	}
	for _, known := range r.selectCols {
		if known == col {
			if desc {
				return col + " DESC"
			}
			return col
		}
	}
	return ""
}

// Exists checks if entity with given ID exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID int64) (bool, error) {
	return r.existsWhere(ctx, squirrel.Eq{"id": entityID})
}

// ExistsByCode checks if entity with given code exists.
func (r *BaseCatalogRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.existsWhere(ctx, squirrel.Eq{"code": code})
}

func (r *BaseCatalogRepo[T]) existsWhere(ctx context.Context, cond squirrel.Eq) (bool, error) {
	q := r.Builder().
		Select("COUNT(*)").
		From(r.tableName).
		Where(cond)

	query, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var n int64
	row := r.txm.GetQuerier().QueryRowContext(ctx, query, args...)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return n > 0, nil
}
