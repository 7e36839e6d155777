package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/pkg/logger"
)

// legacySchema is the pre-versioning shape: single-currency
// transactions with income/expense types, materials without a minimum
// threshold, stock movements with the old 'loss' kind.
const legacySchema = `
CREATE TABLE companies (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    is_active INTEGER NOT NULL DEFAULT 1,
    code      TEXT NOT NULL UNIQUE,
    name      TEXT NOT NULL
);
CREATE TABLE transactions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    is_active   INTEGER NOT NULL DEFAULT 1,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL,
    tx_date     TIMESTAMP NOT NULL,
    type        TEXT NOT NULL,
    scope       TEXT NOT NULL DEFAULT 'general',
    company_id  INTEGER,
    project_id  INTEGER,
    category_id INTEGER,
    amount      TEXT NOT NULL,
    currency    TEXT NOT NULL DEFAULT 'USD',
    description TEXT
);
CREATE TABLE materials (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    is_active     INTEGER NOT NULL DEFAULT 1,
    code          TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    unit          TEXT NOT NULL DEFAULT 'pcs',
    current_stock TEXT NOT NULL DEFAULT '0'
);
CREATE TABLE stock_movements (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    is_active   INTEGER NOT NULL DEFAULT 1,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL,
    material_id INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    quantity    TEXT NOT NULL,
    move_date   TIMESTAMP NOT NULL,
    project_id  INTEGER,
    company_id  INTEGER
);
`

func newLegacyStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	s, err := Open(path, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.DB().Exec(legacySchema)
	require.NoError(t, err)
	return s
}

func TestMigrateIfNeeded_LegacyRows(t *testing.T) {
	ctx := context.Background()
	s := newLegacyStore(t)

	_, err := s.DB().Exec(`
		INSERT INTO transactions
			(id, created_at, updated_at, tx_date, type, amount, currency)
		VALUES
			(1, '2025-01-10', '2025-01-10', '2025-01-10', 'income',  '100', 'USD'),
			(2, '2025-01-11', '2025-01-11', '2025-01-11', 'expense', '40',  'USD')`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`
		INSERT INTO materials (id, code, name, current_stock)
		VALUES (1, 'MAT-00001', 'Cement', '12')`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`
		INSERT INTO stock_movements
			(id, created_at, updated_at, material_id, kind, quantity, move_date)
		VALUES (1, '2025-01-12', '2025-01-12', 1, 'loss', '2', '2025-01-12')`)
	require.NoError(t, err)

	require.NoError(t, s.MigrateIfNeeded(ctx))

	// Legacy types are mapped, never dropped.
	var txType, rate, home string
	err = s.DB().QueryRow(
		"SELECT type, exchange_rate, home_amount FROM transactions WHERE id = 1").
		Scan(&txType, &rate, &home)
	require.NoError(t, err)
	assert.Equal(t, "payment_in", txType)
	assert.Equal(t, "1", rate)
	assert.Equal(t, "100", home)

	err = s.DB().QueryRow("SELECT type FROM transactions WHERE id = 2").Scan(&txType)
	require.NoError(t, err)
	assert.Equal(t, "payment_out", txType)

	var minStock string
	err = s.DB().QueryRow("SELECT min_stock FROM materials WHERE id = 1").Scan(&minStock)
	require.NoError(t, err)
	assert.Equal(t, "0", minStock)

	var kind string
	err = s.DB().QueryRow("SELECT kind FROM stock_movements WHERE id = 1").Scan(&kind)
	require.NoError(t, err)
	assert.Equal(t, "waste", kind)

	version, err := s.schemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
	assert.True(t, s.Tracker().IsDirty())
}

func TestMigrateIfNeeded_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newLegacyStore(t)
	_, err := s.DB().Exec(`
		INSERT INTO transactions
			(created_at, updated_at, tx_date, type, amount, currency)
		VALUES ('2025-01-10', '2025-01-10', '2025-01-10', 'income', '100', 'USD')`)
	require.NoError(t, err)

	require.NoError(t, s.MigrateIfNeeded(ctx))
	var before int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM transactions").Scan(&before))

	// Second run sees the current version and touches nothing.
	require.NoError(t, s.MigrateIfNeeded(ctx))
	var after int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM transactions").Scan(&after))
	assert.Equal(t, before, after)
}

func TestMigrateIfNeeded_EmptyTableIsJustTheSwap(t *testing.T) {
	ctx := context.Background()
	s := newLegacyStore(t)

	require.NoError(t, s.MigrateIfNeeded(ctx))

	cols, err := s.tableColumns(ctx, "transactions")
	require.NoError(t, err)
	assert.True(t, cols["exchange_rate"])
	assert.True(t, cols["home_amount"])

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM transactions").Scan(&n))
	assert.Zero(t, n)
}

func TestMigrateIfNeeded_FreshSchemaOnlyBumpsVersion(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	version, err := s.schemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	require.NoError(t, s.MigrateIfNeeded(ctx))
}

func TestMigrateIfNeeded_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newLegacyStore(t)

	// A pre-existing shadow table makes the CREATE step fail mid-flight.
	_, err := s.DB().Exec("CREATE TABLE transactions__new (id INTEGER)")
	require.NoError(t, err)

	err = s.MigrateIfNeeded(ctx)
	require.Error(t, err)
	assert.True(t, apperror.IsMigrationFailure(err))

	// The legacy table is untouched and the version stamp stays behind.
	cols, err := s.tableColumns(ctx, "transactions")
	require.NoError(t, err)
	assert.False(t, cols["exchange_rate"])

	version, err := s.schemaVersion(ctx)
	require.NoError(t, err)
	assert.Less(t, version, currentSchemaVersion)
}
