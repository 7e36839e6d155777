// Package main provides a CLI tool for seeding the store with demo
// data: a few companies, a project with parties, materials with stock
// history, and sample transactions.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"sitekeeper/internal/app"
	"sitekeeper/internal/domain"
	"sitekeeper/internal/domain/catalogs/company"
	"sitekeeper/internal/domain/catalogs/material"
	"sitekeeper/internal/domain/catalogs/project"
	"sitekeeper/internal/domain/documents/transaction"
	"sitekeeper/internal/domain/registers/stock"
	"sitekeeper/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	storePath := os.Getenv("SITEKEEPER_STORE")
	if storePath == "" {
		storePath = "sitekeeper.db"
	}

	a, err := app.New(ctx, app.Config{StorePath: storePath, Logger: log})
	if err != nil {
		log.Fatalw("failed to open store", "path", storePath, "error", err)
	}
	defer func() {
		if err := a.Close(ctx); err != nil {
			log.Errorw("close store", "error", err)
		}
	}()

	if err := seedDemoData(ctx, a, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedDemoData(ctx context.Context, a *app.App, log *logger.Logger) error {
	// Idempotence: an already-seeded store is left alone.
	filter := domain.DefaultListFilter()
	filter.IncludeInactive = true
	existing, err := a.Companies.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("check existing data: %w", err)
	}
	if existing.TotalCount > 0 {
		log.Infow("store already has data, skipping seed", "companies", existing.TotalCount)
		return nil
	}

	client := company.New("Nordic Homes AB", company.KindOrganization, company.RoleCustomer)
	if err := a.Companies.Create(ctx, client); err != nil {
		return fmt.Errorf("seed client: %w", err)
	}
	supplier := company.New("BuildMart Supplies", company.KindOrganization, company.RoleSupplier)
	if err := a.Companies.Create(ctx, supplier); err != nil {
		return fmt.Errorf("seed supplier: %w", err)
	}

	prj := project.New("Lakeside Villa", project.OwnershipClient, decimal.NewFromInt(250000))
	prj.Status = project.StatusActive
	prj.ClientID = &client.ID
	if err := a.Projects.Create(ctx, prj); err != nil {
		return fmt.Errorf("seed project: %w", err)
	}
	for _, p := range []*project.Party{
		{ProjectID: prj.ID, CompanyID: client.ID, Role: project.PartyCustomer},
		{ProjectID: prj.ID, CompanyID: supplier.ID, Role: project.PartySupplier},
	} {
		if err := a.Projects.AddParty(ctx, p); err != nil {
			return fmt.Errorf("seed party: %w", err)
		}
	}

	cement := material.New("Cement 42.5R", "bag", decimal.NewFromInt(20))
	if err := a.Materials.Create(ctx, cement); err != nil {
		return fmt.Errorf("seed material: %w", err)
	}
	for _, m := range []*stock.Movement{
		stock.NewMovement(cement.ID, stock.KindIn, decimal.NewFromInt(100), daysAgo(14)),
		stock.NewMovement(cement.ID, stock.KindOut, decimal.NewFromInt(35), daysAgo(7)),
		stock.NewMovement(cement.ID, stock.KindWaste, decimal.NewFromInt(2), daysAgo(3)),
	} {
		m.ProjectID = &prj.ID
		if err := a.Stock.RecordMovement(ctx, m); err != nil {
			return fmt.Errorf("seed movement: %w", err)
		}
	}

	expense, err := a.Categories.GetByCode(ctx, "CAT-EXPENSE")
	if err != nil {
		return fmt.Errorf("load default category: %w", err)
	}
	income, err := a.Categories.GetByCode(ctx, "CAT-INCOME")
	if err != nil {
		return fmt.Errorf("load default category: %w", err)
	}

	prepayment := transaction.New(daysAgo(12), transaction.TypePaymentIn,
		decimal.NewFromInt(50000), "USD", decimal.NewFromInt(1))
	prepayment.ProjectID = &prj.ID
	prepayment.CompanyID = &client.ID
	prepayment.CategoryID = &income.ID
	if err := a.Transactions.Create(ctx, prepayment); err != nil {
		return fmt.Errorf("seed transaction: %w", err)
	}

	materialsBill := transaction.New(daysAgo(10), transaction.TypePaymentOut,
		decimal.NewFromInt(4200), "EUR", decimal.RequireFromString("1.08"))
	materialsBill.ProjectID = &prj.ID
	materialsBill.CompanyID = &supplier.ID
	materialsBill.CategoryID = &expense.ID
	if err := a.Transactions.Create(ctx, materialsBill); err != nil {
		return fmt.Errorf("seed transaction: %w", err)
	}

	log.Infow("demo data seeded",
		"project", prj.Code,
		"material", cement.Code,
	)
	return nil
}

func daysAgo(n int) time.Time {
	return time.Now().AddDate(0, 0, -n)
}
