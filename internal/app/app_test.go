package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitekeeper/internal/batch"
	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/domain/catalogs/category"
	"sitekeeper/internal/domain/catalogs/company"
	"sitekeeper/internal/domain/catalogs/material"
	"sitekeeper/internal/domain/catalogs/project"
	"sitekeeper/internal/domain/documents/transaction"
	"sitekeeper/internal/domain/registers/stock"
	"sitekeeper/internal/domain/reports"
	"sitekeeper/internal/domain/trash"
	"sitekeeper/pkg/logger"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	ctx := context.Background()

	a, err := New(ctx, Config{
		StorePath: filepath.Join(t.TempDir(), "store.db"),
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createMaterial(t *testing.T, a *App, name string, minStock string) *material.Material {
	t.Helper()
	m := material.New(name, "pcs", dec(minStock))
	require.NoError(t, a.Materials.Create(context.Background(), m))
	return m
}

func recordMovement(t *testing.T, a *App, materialID int64, kind stock.Kind, qty string) *stock.Movement {
	t.Helper()
	m := stock.NewMovement(materialID, kind, dec(qty), time.Now())
	require.NoError(t, a.Stock.RecordMovement(context.Background(), m))
	return m
}

func currentStock(t *testing.T, a *App, materialID int64) decimal.Decimal {
	t.Helper()
	m, err := a.Materials.GetByID(context.Background(), materialID)
	require.NoError(t, err)
	return m.CurrentStock
}

func TestStockFold_InsertAndDelete(t *testing.T) {
	a := newTestApp(t)
	m := createMaterial(t, a, "Cement", "5")
	assert.Equal(t, "MAT-00001", m.Code)

	recordMovement(t, a, m.ID, stock.KindIn, "10")
	out := recordMovement(t, a, m.ID, stock.KindOut, "3")
	recordMovement(t, a, m.ID, stock.KindWaste, "1")

	assert.True(t, currentStock(t, a, m.ID).Equal(dec("6")))

	// Removing a movement recomputes the fold from the remaining history.
	require.NoError(t, a.Stock.DeleteMovement(context.Background(), out.ID))
	assert.True(t, currentStock(t, a, m.ID).Equal(dec("9")))
}

func TestStockFold_AdjustmentIsSignedDelta(t *testing.T) {
	a := newTestApp(t)
	m := createMaterial(t, a, "Rebar", "0")

	recordMovement(t, a, m.ID, stock.KindIn, "10")
	adj := recordMovement(t, a, m.ID, stock.KindAdjustment, "-4")
	assert.True(t, currentStock(t, a, m.ID).Equal(dec("6")))

	// Deleting an adjustment removes its delta like any other movement.
	require.NoError(t, a.Stock.DeleteMovement(context.Background(), adj.ID))
	assert.True(t, currentStock(t, a, m.ID).Equal(dec("10")))
}

func TestMaterial_ListBelowMinimum(t *testing.T) {
	a := newTestApp(t)
	low := createMaterial(t, a, "Sand", "5")
	ok := createMaterial(t, a, "Gravel", "5")

	recordMovement(t, a, low.ID, stock.KindIn, "2")
	recordMovement(t, a, ok.ID, stock.KindIn, "8")

	lows, err := a.Materials.ListBelowMinimum(context.Background())
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, low.ID, lows[0].ID)
}

func TestTrash_SoftDeleteAndRestorePreservesID(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	c := company.New("Acme Construction", company.KindOrganization, company.RoleCustomer)
	require.NoError(t, a.Companies.Create(ctx, c))
	originalID := c.ID
	require.NotZero(t, originalID)

	item, err := a.Trash.SoftDelete(ctx, trash.EntityCompany, originalID)
	require.NoError(t, err)

	_, err = a.Companies.GetByID(ctx, originalID)
	require.True(t, apperror.IsNotFound(err))

	require.NoError(t, a.Trash.Restore(ctx, item.ID))

	restored, err := a.Companies.GetByID(ctx, originalID)
	require.NoError(t, err)
	assert.Equal(t, originalID, restored.ID)
	assert.Equal(t, c.Name, restored.Name)
	assert.Equal(t, c.Code, restored.Code)
	assert.True(t, restored.IsActive)

	// The envelope was consumed.
	items, err := a.Trash.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTrash_RestoreMovementRecomputesStock(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	m := createMaterial(t, a, "Bricks", "0")

	recordMovement(t, a, m.ID, stock.KindIn, "10")
	out := recordMovement(t, a, m.ID, stock.KindOut, "4")
	require.True(t, currentStock(t, a, m.ID).Equal(dec("6")))

	item, err := a.Trash.SoftDelete(ctx, trash.EntityStockMovement, out.ID)
	require.NoError(t, err)
	assert.True(t, currentStock(t, a, m.ID).Equal(dec("10")))

	require.NoError(t, a.Trash.Restore(ctx, item.ID))
	assert.True(t, currentStock(t, a, m.ID).Equal(dec("6")))
}

func TestTrash_DefaultCategoryIsGuarded(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	def, err := a.Categories.GetByCode(ctx, "CAT-INCOME")
	require.NoError(t, err)
	require.True(t, def.IsDefault)

	_, err = a.Trash.SoftDelete(ctx, trash.EntityCategory, def.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)

	// Non-default categories are fair game.
	custom := category.New("Fuel", category.KindExpense)
	require.NoError(t, a.Categories.Create(ctx, custom))
	_, err = a.Trash.SoftDelete(ctx, trash.EntityCategory, custom.ID)
	require.NoError(t, err)
}

func TestTrash_EmptyTrash(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	for _, name := range []string{"One", "Two", "Three"} {
		c := company.New(name, company.KindPerson, company.RoleSupplier)
		require.NoError(t, a.Companies.Create(ctx, c))
		_, err := a.Trash.SoftDelete(ctx, trash.EntityCompany, c.ID)
		require.NoError(t, err)
	}

	deleted, err := a.Trash.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	items, err := a.Trash.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBatch_WriteAllOrNothing(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	good, err := a.Categories.GetByCode(ctx, "CAT-EXPENSE")
	require.NoError(t, err)
	missing := int64(9999)

	mk := func(categoryID int64) *transaction.Transaction {
		tx := transaction.New(time.Now(), transaction.TypePaymentOut, dec("50"), "USD", dec("1"))
		tx.CategoryID = &categoryID
		return tx
	}

	ops := []batch.Request{
		{ID: "op-1", Type: "transaction.create", Params: []any{mk(good.ID)}},
		{ID: "op-2", Type: "transaction.create", Params: []any{mk(missing)}},
		{ID: "op-3", Type: "transaction.create", Params: []any{mk(good.ID)}},
	}

	results, err := a.Batch.RunWriteBatch(ctx, ops)
	require.Error(t, err)

	// Execution stopped at the failing op; op-3 never ran.
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "op-1", results[0].ID)
	assert.False(t, results[1].Success)
	assert.Equal(t, "op-2", results[1].ID)
	assert.NotEmpty(t, results[1].Error)

	// Nothing before the failure persisted either.
	list, err := a.Transactions.List(ctx, transaction.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBatch_UnknownOpAbortsWriteBatch(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	_, err := a.Batch.RunWriteBatch(ctx, []batch.Request{
		{ID: "op-1", Type: "no.such.op"},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeExecution, appErr.Code)
}

func TestBatch_ReadBatchPartialSuccess(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	tx := transaction.New(time.Now(), transaction.TypePaymentIn, dec("100"), "USD", dec("1"))
	require.NoError(t, a.Transactions.Create(ctx, tx))

	results := a.Batch.RunReadBatch(ctx, []batch.Request{
		{ID: "r-1", Type: "transaction.get", Params: []any{tx.ID}},
		{ID: "r-2", Type: "transaction.get", Params: []any{int64(424242)}},
		{ID: "r-3", Type: "no.such.op"},
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.False(t, results[2].Success)
	assert.Contains(t, results[2].Error, "unknown operation")
}

func TestNumerator_GeneratedCodes(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	year := time.Now().Format("2006")

	p1 := project.New("Villa Nord", project.OwnershipClient, dec("250000"))
	require.NoError(t, a.Projects.Create(ctx, p1))
	p2 := project.New("Villa Sud", project.OwnershipOwn, dec("90000"))
	require.NoError(t, a.Projects.Create(ctx, p2))

	assert.Equal(t, "PRJ-"+year+"-0001", p1.Code)
	assert.Equal(t, "PRJ-"+year+"-0002", p2.Code)

	c := company.New("Supplier AB", company.KindOrganization, company.RoleSupplier)
	require.NoError(t, a.Companies.Create(ctx, c))
	assert.Equal(t, "CMP-00001", c.Code)
}

func TestProject_Parties(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	p := project.New("Bridge", project.OwnershipClient, dec("1000"))
	require.NoError(t, a.Projects.Create(ctx, p))
	c := company.New("Builder Inc", company.KindOrganization, company.RoleSubcontractor)
	require.NoError(t, a.Companies.Create(ctx, c))

	party := &project.Party{ProjectID: p.ID, CompanyID: c.ID, Role: project.PartySubcontractor}
	require.NoError(t, a.Projects.AddParty(ctx, party))

	// The (project, company, role) triple is unique.
	dup := &project.Party{ProjectID: p.ID, CompanyID: c.ID, Role: project.PartySubcontractor}
	err := a.Projects.AddParty(ctx, dup)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)

	parties, err := a.Projects.ListParties(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, parties, 1)

	require.NoError(t, a.Projects.RemoveParty(ctx, party.ID))
	parties, err = a.Projects.ListParties(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, parties)
}

func TestTransaction_HomeAmountFrozen(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	tx := transaction.New(time.Now(), transaction.TypeInvoiceIn, dec("100"), "EUR", dec("1.10"))
	require.NoError(t, a.Transactions.Create(ctx, tx))
	assert.True(t, tx.HomeAmount.Equal(dec("110")))

	got, err := a.Transactions.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.HomeAmount.Equal(dec("110")))

	// An update re-freezes at the new values; it never rewrites history
	// for other rows.
	got.Amount = dec("200")
	require.NoError(t, a.Transactions.Update(ctx, got))
	again, err := a.Transactions.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, again.HomeAmount.Equal(dec("220")))
}

func TestReports_ProjectFinanceAndStockBalance(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	p := project.New("Depot", project.OwnershipOwn, dec("10000"))
	require.NoError(t, a.Projects.Create(ctx, p))

	income, err := a.Categories.GetByCode(ctx, "CAT-INCOME")
	require.NoError(t, err)
	expense, err := a.Categories.GetByCode(ctx, "CAT-EXPENSE")
	require.NoError(t, err)

	in := transaction.New(time.Now(), transaction.TypePaymentIn, dec("1000"), "USD", dec("1"))
	in.ProjectID = &p.ID
	in.CategoryID = &income.ID
	require.NoError(t, a.Transactions.Create(ctx, in))

	out := transaction.New(time.Now(), transaction.TypePaymentOut, dec("300"), "EUR", dec("1.10"))
	out.ProjectID = &p.ID
	out.CategoryID = &expense.ID
	require.NoError(t, a.Transactions.Create(ctx, out))

	finance, err := a.Reports.GetProjectFinance(ctx, reports.ProjectFinanceFilter{})
	require.NoError(t, err)
	require.Len(t, finance.Items, 1)
	assert.True(t, finance.Items[0].Income.Equal(dec("1000")))
	assert.True(t, finance.Items[0].Expense.Equal(dec("330")))
	assert.True(t, finance.Items[0].Net.Equal(dec("670")))

	m := createMaterial(t, a, "Tiles", "10")
	recordMovement(t, a, m.ID, stock.KindIn, "4")

	balance, err := a.Reports.GetStockBalance(ctx, reports.StockBalanceFilter{BelowMinimumOnly: true})
	require.NoError(t, err)
	require.Len(t, balance.Items, 1)
	assert.Equal(t, m.ID, balance.Items[0].MaterialID)
	assert.True(t, balance.Items[0].BelowMinimum)
}

func TestReports_FinanceTotalsCoverFullSet(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	income, err := a.Categories.GetByCode(ctx, "CAT-INCOME")
	require.NoError(t, err)

	for _, amount := range []string{"100", "250"} {
		p := project.New("Site "+amount, project.OwnershipOwn, dec("1000"))
		require.NoError(t, a.Projects.Create(ctx, p))

		in := transaction.New(time.Now(), transaction.TypePaymentIn, dec(amount), "USD", dec("1"))
		in.ProjectID = &p.ID
		in.CategoryID = &income.ID
		require.NoError(t, a.Transactions.Create(ctx, in))
	}

	// A one-item window still reports totals over every project.
	finance, err := a.Reports.GetProjectFinance(ctx, reports.ProjectFinanceFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, finance.Items, 1)
	assert.True(t, finance.TotalIncome.Equal(dec("350")))
	assert.True(t, finance.TotalSpent.IsZero())
}

func TestStock_HistoryBetween(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	m := createMaterial(t, a, "Rebar", "0")

	var ids []int64
	for _, daysBack := range []int{10, 5, 1} {
		mv := stock.NewMovement(m.ID, stock.KindIn, dec("1"), time.Now().AddDate(0, 0, -daysBack))
		require.NoError(t, a.Stock.RecordMovement(ctx, mv))
		ids = append(ids, mv.ID)
	}

	window, err := a.Stock.HistoryBetween(ctx, m.ID,
		time.Now().AddDate(0, 0, -7), time.Now().AddDate(0, 0, -3))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, ids[1], window[0].ID)

	// An inverted period is rejected before touching the store.
	_, err = a.Stock.HistoryBetween(ctx, m.ID, time.Now(), time.Now().AddDate(0, 0, -1))
	require.Error(t, err)
	assert.True(t, apperror.IsAppError(err))
}

func TestApp_ReopenSeesFlushedState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	a1, err := New(ctx, Config{StorePath: path, Logger: logger.Nop()})
	require.NoError(t, err)
	c := company.New("Persisted Co", company.KindOrganization, company.RoleCustomer)
	require.NoError(t, a1.Companies.Create(ctx, c))
	require.NoError(t, a1.Close(ctx))

	a2, err := New(ctx, Config{StorePath: path, Logger: logger.Nop()})
	require.NoError(t, err)
	defer a2.Close(ctx)

	got, err := a2.Companies.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted Co", got.Name)
}
