package numerator

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSeqDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE sys_sequences (
			sequence_type TEXT NOT NULL,
			year          INTEGER NOT NULL DEFAULT 0,
			current_val   INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (sequence_type, year)
		)`)
	require.NoError(t, err)
	return db
}

func TestGetNextNumber_YearlySequence(t *testing.T) {
	db := openSeqDB(t)
	svc := New(func() Querier { return db })
	ctx := context.Background()

	cfg := Config{Prefix: "PRJ", IncludeYear: true, PadWidth: 4, ResetPeriod: "year"}
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "PRJ-2026-0001", num)

	num, err = svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "PRJ-2026-0002", num)

	// A new year starts a fresh counter.
	nextYear := period.AddDate(1, 0, 0)
	num, err = svc.GetNextNumber(ctx, cfg, nextYear)
	require.NoError(t, err)
	assert.Equal(t, "PRJ-2027-0001", num)
}

func TestGetNextNumber_NeverReset(t *testing.T) {
	db := openSeqDB(t)
	svc := New(func() Querier { return db })
	ctx := context.Background()

	cfg := Config{Prefix: "MAT", IncludeYear: false, PadWidth: 5, ResetPeriod: "never"}

	num, err := svc.GetNextNumber(ctx, cfg, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "MAT-00001", num)

	// The counter survives year boundaries.
	num, err = svc.GetNextNumber(ctx, cfg, time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "MAT-00002", num)
}

func TestSetNextNumber(t *testing.T) {
	db := openSeqDB(t)
	svc := New(func() Querier { return db })
	ctx := context.Background()

	cfg := DefaultConfig("INV")
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, now, 41))

	num, err := svc.GetNextNumber(ctx, cfg, now)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00042", num)
}

func TestFormatNumber(t *testing.T) {
	period := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got := FormatNumber(Config{Prefix: "PRJ", IncludeYear: true, PadWidth: 4}, period, 7)
	assert.Equal(t, "PRJ-2026-0007", got)

	got = FormatNumber(Config{Prefix: "MAT", PadWidth: 5}, period, 123)
	assert.Equal(t, "MAT-00123", got)

	// Zero pad width falls back to 5.
	got = FormatNumber(Config{Prefix: "X"}, period, 1)
	assert.Equal(t, "X-00001", got)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("PRJ-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("MAT-00007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
	assert.Equal(t, int64(-1), ParseNumber("PRJ-"))
	assert.Equal(t, int64(-1), ParseNumber(""))
	assert.Equal(t, int64(-1), ParseNumber("PRJ-2026-abc"))
}
