// Package main is the entry point for the sitekeeper engine CLI.
// It opens the store, runs schema checks and migrations, and exposes
// maintenance operations (integrity check, backup).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"sitekeeper/internal/app"
	"sitekeeper/internal/core/apperror"
	"sitekeeper/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	storePath := flag.String("store", getEnv("SITEKEEPER_STORE", "sitekeeper.db"),
		"path to the durable store file")
	backupDir := flag.String("backup", "", "create a backup in the given directory and exit")
	check := flag.Bool("check", false, "run integrity and foreign-key checks and exit")
	flushDelay := flag.Duration("flush-delay",
		getEnvDuration("SITEKEEPER_FLUSH_DELAY", 0), "deferred flush debounce window")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		return 1
	}

	ctx := context.Background()
	log.Infow("starting sitekeeper", "store", *storePath)

	a, err := app.New(ctx, app.Config{
		StorePath:  *storePath,
		FlushDelay: *flushDelay,
		Logger:     log,
	})
	if err != nil {
		if apperror.IsMigrationFailure(err) {
			log.Errorw("schema migration failed; the store was rolled back",
				"error", err)
			log.Error("restore the last known-good backup before starting again")
			return 1
		}
		log.Errorw("failed to open store", "error", err)
		return 1
	}
	defer func() {
		if err := a.Close(ctx); err != nil {
			log.Errorw("close store", "error", err)
		}
	}()

	// A corrupt store must not serve traffic.
	problems, err := a.Engine.Store.CheckIntegrity(ctx)
	if err != nil {
		log.Errorw("integrity check failed to run", "error", err)
		return 1
	}
	if len(problems) > 0 {
		for _, p := range problems {
			log.Errorw("integrity violation", "detail", p)
		}
		log.Error("store failed integrity check; restore from backup")
		return 1
	}

	fkViolations, err := a.Engine.Store.CheckForeignKeys(ctx)
	if err != nil {
		log.Errorw("foreign key check failed to run", "error", err)
		return 1
	}
	for _, v := range fkViolations {
		log.Warnw("foreign key violation", "detail", v.String())
	}

	switch {
	case *check:
		log.Infow("integrity check passed", "fk_warnings", len(fkViolations))
		return 0

	case *backupDir != "":
		info, err := a.Engine.Store.CreateBackup(ctx, *backupDir)
		if err != nil {
			log.Errorw("backup failed", "dir", *backupDir, "error", err)
			return 1
		}
		// The backup is confirmed on disk, so the tracker can forget
		// the pending-changes state.
		a.Engine.Store.Tracker().ClearDirty()
		log.Infow("backup created",
			"path", info.Path,
			"size", info.Meta.Size,
			"at", info.Meta.LastBackup.Format(time.RFC3339),
		)
		return 0

	default:
		if err := printSummary(ctx, a); err != nil {
			log.Errorw("summary failed", "error", err)
			return 1
		}
		return 0
	}
}

func printSummary(ctx context.Context, a *app.App) error {
	tables := []string{
		"companies", "projects", "categories", "transactions",
		"materials", "stock_movements", "trash_items",
	}
	for _, table := range tables {
		var count int64
		row := a.Engine.Tx.GetQuerier().QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+table)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		fmt.Printf("%-16s %d\n", table, count)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
