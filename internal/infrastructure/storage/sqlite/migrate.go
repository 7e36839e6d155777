package sqlite

import (
	"context"
	"fmt"

	"sitekeeper/internal/core/apperror"
)

// tableRebuild describes a guarded shadow-table migration for one table:
// create the new shape, copy rows with explicit value mapping, drop the
// old table, rename the shadow, rebuild indexes.
type tableRebuild struct {
	table string

	// requiredColumns are columns the current shape must have; the
	// rebuild runs only when at least one is missing from the live table.
	requiredColumns []string

	// createSQL creates <table>__new with the current shape.
	createSQL string

	// copySQL moves rows from the old table into <table>__new.
	// Renamed values are mapped explicitly, never dropped silently.
	copySQL string

	// indexSQL recreates indexes after the rename.
	indexSQL []string
}

// rebuilds lists the known legacy shapes, oldest first.
var rebuilds = []tableRebuild{
	{
		table:           "transactions",
		requiredColumns: []string{"exchange_rate", "home_amount"},
		createSQL: `CREATE TABLE transactions__new (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL,
			tx_date       TIMESTAMP NOT NULL,
			type          TEXT NOT NULL,
			scope         TEXT NOT NULL DEFAULT 'general',
			company_id    INTEGER REFERENCES companies(id) ON DELETE SET NULL,
			project_id    INTEGER REFERENCES projects(id) ON DELETE SET NULL,
			category_id   INTEGER REFERENCES categories(id),
			amount        TEXT NOT NULL,
			currency      TEXT NOT NULL DEFAULT 'USD',
			exchange_rate TEXT NOT NULL DEFAULT '1',
			home_amount   TEXT NOT NULL,
			description   TEXT
		)`,
		// Legacy rows were single-currency: rate 1, home amount = amount.
		// Legacy type names are mapped, not dropped.
		copySQL: `INSERT INTO transactions__new
			(id, is_active, created_at, updated_at, tx_date, type, scope,
			 company_id, project_id, category_id, amount, currency,
			 exchange_rate, home_amount, description)
			SELECT id, is_active, created_at, updated_at, tx_date,
			       CASE type
			           WHEN 'income'  THEN 'payment_in'
			           WHEN 'expense' THEN 'payment_out'
			           ELSE type
			       END,
			       scope, company_id, project_id, category_id, amount,
			       currency, '1', amount, description
			FROM transactions`,
		indexSQL: []string{
			"CREATE INDEX IF NOT EXISTS idx_transactions_project ON transactions(project_id)",
			"CREATE INDEX IF NOT EXISTS idx_transactions_company ON transactions(company_id)",
			"CREATE INDEX IF NOT EXISTS idx_transactions_date    ON transactions(tx_date)",
		},
	},
	{
		table:           "materials",
		requiredColumns: []string{"min_stock"},
		createSQL: `CREATE TABLE materials__new (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			is_active     INTEGER NOT NULL DEFAULT 1,
			code          TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			unit          TEXT NOT NULL DEFAULT 'pcs',
			min_stock     TEXT NOT NULL DEFAULT '0',
			current_stock TEXT NOT NULL DEFAULT '0'
		)`,
		copySQL: `INSERT INTO materials__new
			(id, is_active, code, name, unit, min_stock, current_stock)
			SELECT id, is_active, code, name, unit, '0', current_stock
			FROM materials`,
	},
	{
		table:           "stock_movements",
		requiredColumns: []string{"note"},
		createSQL: `CREATE TABLE stock_movements__new (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			is_active   INTEGER NOT NULL DEFAULT 1,
			created_at  TIMESTAMP NOT NULL,
			updated_at  TIMESTAMP NOT NULL,
			material_id INTEGER NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
			kind        TEXT NOT NULL,
			quantity    TEXT NOT NULL,
			move_date   TIMESTAMP NOT NULL,
			project_id  INTEGER REFERENCES projects(id) ON DELETE SET NULL,
			company_id  INTEGER REFERENCES companies(id) ON DELETE SET NULL,
			note        TEXT
		)`,
		// The legacy 'loss' kind became 'waste'.
		copySQL: `INSERT INTO stock_movements__new
			(id, is_active, created_at, updated_at, material_id, kind,
			 quantity, move_date, project_id, company_id, note)
			SELECT id, is_active, created_at, updated_at, material_id,
			       CASE kind WHEN 'loss' THEN 'waste' ELSE kind END,
			       quantity, move_date, project_id, company_id, NULL
			FROM stock_movements`,
		indexSQL: []string{
			"CREATE INDEX IF NOT EXISTS idx_movements_material ON stock_movements(material_id)",
			"CREATE INDEX IF NOT EXISTS idx_movements_date     ON stock_movements(move_date)",
		},
	},
}

// MigrateIfNeeded inspects the live schema and performs guarded
// shadow-table migrations for any table whose column set predates the
// current shape. All rebuilds run in one transaction; on failure the
// transaction rolls back and a fatal MigrationFailure is returned -
// the caller must not proceed, recovery is restore-from-backup.
//
// Running twice on a migrated schema performs no row changes.
func (s *Store) MigrateIfNeeded(ctx context.Context) error {
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return apperror.NewMigrationFailure(err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	pending, err := s.pendingRebuilds(ctx)
	if err != nil {
		return apperror.NewMigrationFailure(err)
	}

	if len(pending) == 0 {
		// Schema already current, only the version stamp is behind.
		if err := setSchemaVersion(ctx, s.db, currentSchemaVersion); err != nil {
			return apperror.NewMigrationFailure(err)
		}
		return nil
	}

	// Table swaps need FK enforcement off; the pragma is a no-op inside
	// a transaction, so toggle it around the whole migration.
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return apperror.NewMigrationFailure(err)
	}
	defer func() {
		_, _ = s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	}()

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.NewMigrationFailure(fmt.Errorf("begin migration: %w", err))
	}

	for _, r := range pending {
		if err := runRebuild(ctx, dbTx, r); err != nil {
			_ = dbTx.Rollback()
			return apperror.NewMigrationFailure(err)
		}
	}
	if err := setSchemaVersion(ctx, dbTx, currentSchemaVersion); err != nil {
		_ = dbTx.Rollback()
		return apperror.NewMigrationFailure(err)
	}

	if err := dbTx.Commit(); err != nil {
		return apperror.NewMigrationFailure(fmt.Errorf("commit migration: %w", err))
	}

	s.tracker.MarkDirty()
	s.log.Infow("schema migrated", "tables", len(pending), "version", currentSchemaVersion)
	return nil
}

// pendingRebuilds returns the rebuilds whose tables exist with missing
// columns.
func (s *Store) pendingRebuilds(ctx context.Context) ([]tableRebuild, error) {
	var pending []tableRebuild
	for _, r := range rebuilds {
		exists, err := s.tableExists(ctx, r.table)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		cols, err := s.tableColumns(ctx, r.table)
		if err != nil {
			return nil, err
		}
		for _, required := range r.requiredColumns {
			if !cols[required] {
				pending = append(pending, r)
				break
			}
		}
	}
	return pending, nil
}

// runRebuild executes one shadow-table migration inside the caller's
// transaction. On an empty table this amounts to the table swap only.
func runRebuild(ctx context.Context, q Querier, r tableRebuild) error {
	steps := []string{
		r.createSQL,
		r.copySQL,
		fmt.Sprintf("DROP TABLE %s", r.table),
		fmt.Sprintf("ALTER TABLE %s__new RENAME TO %s", r.table, r.table),
	}
	steps = append(steps, r.indexSQL...)

	for _, stmt := range steps {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", r.table, err)
		}
	}
	return nil
}
