// Package app is the composition root: it opens the engine and wires
// repositories, services, the trash registry and the batch executor
// around one store handle.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sitekeeper/internal/batch"
	"sitekeeper/internal/domain/catalogs/category"
	"sitekeeper/internal/domain/catalogs/company"
	"sitekeeper/internal/domain/catalogs/material"
	"sitekeeper/internal/domain/catalogs/project"
	"sitekeeper/internal/domain/documents/transaction"
	"sitekeeper/internal/domain/registers/stock"
	"sitekeeper/internal/domain/reports"
	"sitekeeper/internal/domain/trash"
	"sitekeeper/internal/infrastructure/storage/sqlite"
	"sitekeeper/internal/infrastructure/storage/sqlite/catalog_repo"
	"sitekeeper/internal/infrastructure/storage/sqlite/document_repo"
	"sitekeeper/internal/infrastructure/storage/sqlite/register_repo"
	"sitekeeper/internal/infrastructure/storage/sqlite/report_repo"
	"sitekeeper/internal/infrastructure/storage/sqlite/trash_repo"
	"sitekeeper/pkg/logger"
	"sitekeeper/pkg/numerator"
)

// App holds every wired subsystem. Tests construct one over a
// throwaway store path and use the services directly.
type App struct {
	Engine *sqlite.Engine

	Companies    *company.Service
	Projects     *project.Service
	Materials    *material.Service
	Categories   *category.Service
	Transactions *transaction.Service
	Stock        *stock.Service
	Trash        *trash.Service
	Reports      *reports.Service
	Batch        *batch.Executor

	TransactionRepo *document_repo.TransactionRepo
	StockRepo       *register_repo.StockRepo
}

// Config configures application construction.
type Config struct {
	// StorePath is the durable backing file for the in-memory store.
	StorePath string

	// FlushDelay overrides the deferred-flush debounce window.
	FlushDelay time.Duration

	Logger *logger.Logger
}

// New opens the store, ensures and migrates the schema, and wires the
// full service graph.
func New(ctx context.Context, cfg Config) (*App, error) {
	engine, err := sqlite.NewEngine(cfg.StorePath, sqlite.Options{
		FlushDelay: cfg.FlushDelay,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	if err := engine.Store.EnsureSchema(ctx); err != nil {
		_ = engine.Store.Close()
		return nil, err
	}
	if err := engine.Store.MigrateIfNeeded(ctx); err != nil {
		_ = engine.Store.Close()
		return nil, err
	}

	txm := engine.Tx
	num := numerator.New(func() numerator.Querier { return txm.GetQuerier() })

	companyRepo := catalog_repo.NewCompanyRepo(txm)
	projectRepo := catalog_repo.NewProjectRepo(txm)
	materialRepo := catalog_repo.NewMaterialRepo(txm)
	categoryRepo := catalog_repo.NewCategoryRepo(txm)
	transactionRepo := document_repo.NewTransactionRepo(txm)
	stockRepo := register_repo.NewStockRepo(txm)
	trashRepo := trash_repo.NewTrashRepo(txm)

	a := &App{
		Engine:          engine,
		Companies:       company.NewService(companyRepo, txm, num),
		Projects:        project.NewService(projectRepo, companyRepo, txm, num),
		Materials:       material.NewService(materialRepo, txm, num),
		Categories:      category.NewService(categoryRepo, txm),
		Transactions:    transaction.NewService(transactionRepo, txm),
		Stock:           stock.NewService(stockRepo, materialRepo, txm),
		Trash:           trash.NewService(trashRepo, txm),
		Reports:         reports.NewService(report_repo.NewReportRepo(txm)),
		Batch:           batch.NewExecutor(txm),
		TransactionRepo: transactionRepo,
		StockRepo:       stockRepo,
	}

	a.registerTrashHandlers(companyRepo, projectRepo, materialRepo, categoryRepo)
	if err := a.Trash.CheckHandlers(); err != nil {
		_ = engine.Store.Close()
		return nil, err
	}
	a.registerBatchOps()

	return a, nil
}

// Close flushes pending state and releases the store.
func (a *App) Close(ctx context.Context) error {
	return a.Engine.Close(ctx)
}

// registerTrashHandlers installs the snapshot/delete/restore triple
// for every entity type. Restore re-inserts with the original id,
// which the repositories preserve for non-zero ids.
func (a *App) registerTrashHandlers(
	companyRepo *catalog_repo.CompanyRepo,
	projectRepo *catalog_repo.ProjectRepo,
	materialRepo *catalog_repo.MaterialRepo,
	categoryRepo *catalog_repo.CategoryRepo,
) {
	a.Trash.Register(trash.EntityCompany, trash.Handler{
		Snapshot: snapshotCatalog(a.Companies.GetByID, a.Companies.RunBeforeDelete),
		Delete:   companyRepo.Delete,
		Restore: restoreCatalog(func() *company.Company { return &company.Company{} },
			companyRepo.Create),
	})
	a.Trash.Register(trash.EntityProject, trash.Handler{
		Snapshot: snapshotCatalog(a.Projects.GetByID, a.Projects.RunBeforeDelete),
		Delete:   projectRepo.Delete,
		Restore: restoreCatalog(func() *project.Project { return &project.Project{} },
			projectRepo.Create),
	})
	a.Trash.Register(trash.EntityMaterial, trash.Handler{
		Snapshot: snapshotCatalog(a.Materials.GetByID, a.Materials.RunBeforeDelete),
		Delete:   materialRepo.Delete,
		Restore: restoreCatalog(func() *material.Material { return &material.Material{} },
			materialRepo.Create),
	})
	a.Trash.Register(trash.EntityCategory, trash.Handler{
		Snapshot: snapshotCatalog(a.Categories.GetByID, a.Categories.RunBeforeDelete),
		Delete:   categoryRepo.Delete,
		Restore: restoreCatalog(func() *category.Category { return &category.Category{} },
			categoryRepo.Create),
	})
	a.Trash.Register(trash.EntityTransaction, trash.Handler{
		Snapshot: func(ctx context.Context, id int64) (json.RawMessage, error) {
			t, err := a.TransactionRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(t)
		},
		Delete: a.TransactionRepo.Delete,
		Restore: func(ctx context.Context, data json.RawMessage) error {
			t := &transaction.Transaction{}
			if err := json.Unmarshal(data, t); err != nil {
				return err
			}
			return a.TransactionRepo.Create(ctx, t)
		},
	})
	a.Trash.Register(trash.EntityStockMovement, trash.Handler{
		Snapshot: func(ctx context.Context, id int64) (json.RawMessage, error) {
			m, err := a.StockRepo.GetMovement(ctx, id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(m)
		},
		// Deleting or restoring a movement changes the fold input, so
		// the derived stock is recomputed both ways.
		Delete: func(ctx context.Context, id int64) error {
			m, err := a.StockRepo.GetMovement(ctx, id)
			if err != nil {
				return err
			}
			if err := a.StockRepo.DeleteMovement(ctx, id); err != nil {
				return err
			}
			return a.Stock.Recompute(ctx, m.MaterialID)
		},
		Restore: func(ctx context.Context, data json.RawMessage) error {
			m := &stock.Movement{}
			if err := json.Unmarshal(data, m); err != nil {
				return err
			}
			if err := a.StockRepo.CreateMovement(ctx, m); err != nil {
				return err
			}
			return a.Stock.Recompute(ctx, m.MaterialID)
		},
	})
}

func snapshotCatalog[T any](
	get func(ctx context.Context, id int64) (T, error),
	guard func(ctx context.Context, e T) error,
) func(ctx context.Context, id int64) (json.RawMessage, error) {
	return func(ctx context.Context, id int64) (json.RawMessage, error) {
		e, err := get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := guard(ctx, e); err != nil {
			return nil, err
		}
		return json.Marshal(e)
	}
}

func restoreCatalog[T any](
	newFn func() T,
	create func(ctx context.Context, e T) error,
) func(ctx context.Context, data json.RawMessage) error {
	return func(ctx context.Context, data json.RawMessage) error {
		e := newFn()
		if err := json.Unmarshal(data, e); err != nil {
			return err
		}
		return create(ctx, e)
	}
}

// registerBatchOps installs the operation handlers the routing layer
// dispatches to. Params arrive pre-validated and well-typed.
func (a *App) registerBatchOps() {
	a.Batch.Register("transaction.create", func(ctx context.Context, params []any) (any, error) {
		t, err := argAs[*transaction.Transaction](params, 0)
		if err != nil {
			return nil, err
		}
		if err := a.Transactions.Create(ctx, t); err != nil {
			return nil, err
		}
		return t.ID, nil
	})
	a.Batch.Register("transaction.delete", func(ctx context.Context, params []any) (any, error) {
		id, err := argAs[int64](params, 0)
		if err != nil {
			return nil, err
		}
		return nil, a.Transactions.Delete(ctx, id)
	})
	a.Batch.Register("transaction.get", func(ctx context.Context, params []any) (any, error) {
		id, err := argAs[int64](params, 0)
		if err != nil {
			return nil, err
		}
		return a.Transactions.GetByID(ctx, id)
	})
	a.Batch.Register("movement.record", func(ctx context.Context, params []any) (any, error) {
		m, err := argAs[*stock.Movement](params, 0)
		if err != nil {
			return nil, err
		}
		if err := a.Stock.RecordMovement(ctx, m); err != nil {
			return nil, err
		}
		return m.ID, nil
	})
	a.Batch.Register("movement.delete", func(ctx context.Context, params []any) (any, error) {
		id, err := argAs[int64](params, 0)
		if err != nil {
			return nil, err
		}
		return nil, a.Stock.DeleteMovement(ctx, id)
	})
	a.Batch.Register("trash.softDelete", func(ctx context.Context, params []any) (any, error) {
		entityType, err := argAs[string](params, 0)
		if err != nil {
			return nil, err
		}
		id, err := argAs[int64](params, 1)
		if err != nil {
			return nil, err
		}
		item, err := a.Trash.SoftDelete(ctx, trash.EntityType(entityType), id)
		if err != nil {
			return nil, err
		}
		return item.ID, nil
	})
}

func argAs[T any](params []any, i int) (T, error) {
	var zero T
	if i >= len(params) {
		return zero, fmt.Errorf("missing param %d", i)
	}
	v, ok := params[i].(T)
	if !ok {
		return zero, fmt.Errorf("param %d: unexpected type %T", i, params[i])
	}
	return v, nil
}
