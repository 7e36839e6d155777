package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitekeeper/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := Open(path, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.MigrateIfNeeded(ctx))
	return s, path
}

func insertCompany(t *testing.T, s *Store, code, name string) {
	t.Helper()
	_, err := s.DB().Exec(
		"INSERT INTO companies (code, name, kind, role) VALUES (?, ?, 'organization', 'customer')",
		code, name)
	require.NoError(t, err)
}

func TestStore_FlushLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	s1, path := newTestStore(t)

	insertCompany(t, s1, "CMP-00001", "Acme Construction")
	require.NoError(t, s1.Flush(ctx))
	require.NoError(t, s1.Close())

	// A fresh store over the same file sees the flushed row.
	s2, err := Open(path, logger.Nop())
	require.NoError(t, err)
	defer s2.Close()

	var name string
	err = s2.DB().QueryRow("SELECT name FROM companies WHERE code = 'CMP-00001'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "Acme Construction", name)
}

func TestStore_CloseWithoutFlushDiscards(t *testing.T) {
	ctx := context.Background()
	s1, path := newTestStore(t)

	require.NoError(t, s1.Flush(ctx))
	insertCompany(t, s1, "CMP-00002", "Ghost Co")
	require.NoError(t, s1.Close())

	s2, err := Open(path, logger.Nop())
	require.NoError(t, err)
	defer s2.Close()

	var n int
	require.NoError(t, s2.DB().QueryRow("SELECT COUNT(*) FROM companies").Scan(&n))
	assert.Zero(t, n)
}

func TestStore_ExportToProducesOpenableDatabase(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	insertCompany(t, s, "CMP-00003", "Export Co")

	exportPath := filepath.Join(t.TempDir(), "export.db")
	require.NoError(t, s.ExportTo(ctx, exportPath))

	exported, err := Open(exportPath, logger.Nop())
	require.NoError(t, err)
	defer exported.Close()

	var n int
	require.NoError(t, exported.DB().QueryRow("SELECT COUNT(*) FROM companies").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.IsDirty())

	tr.MarkDirty()
	assert.True(t, tr.IsDirty())

	tr.ClearDirty()
	assert.False(t, tr.IsDirty())
}

func TestTxManager_NotifyMutationMarksDirty(t *testing.T) {
	s, _ := newTestStore(t)
	txm := NewTxManager(s, logger.Nop())

	assert.False(t, s.Tracker().IsDirty())
	txm.NotifyMutation()
	assert.True(t, s.Tracker().IsDirty())
}

func TestFlusher_DebounceCollapses(t *testing.T) {
	s, _ := newTestStore(t)
	txm := NewTxManager(s, logger.Nop())
	f := NewFlusher(s, txm, 30*time.Millisecond, logger.Nop())
	txm.AttachFlusher(f)
	defer f.Stop()

	insertCompany(t, s, "CMP-00004", "Debounce Co")

	// A burst of mutations re-arms the same timer.
	for i := 0; i < 5; i++ {
		txm.NotifyMutation()
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, s.Tracker().IsDirty())

	require.Eventually(t, func() bool {
		return !s.Tracker().IsDirty()
	}, time.Second, 10*time.Millisecond, "deferred flush should clear the dirty flag")
}

func TestFlusher_SuppressedWhileTransactionOpen(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	txm := NewTxManager(s, logger.Nop())
	f := NewFlusher(s, txm, 20*time.Millisecond, logger.Nop())
	txm.AttachFlusher(f)
	defer f.Stop()

	require.NoError(t, txm.Begin(ctx))
	_, err := txm.GetQuerier().ExecContext(ctx,
		"INSERT INTO companies (code, name) VALUES ('CMP-00005', 'Open Tx Co')")
	require.NoError(t, err)
	txm.NotifyMutation()

	// The timer fires while the transaction is open; the half-committed
	// state must not reach disk, so the flag stays set.
	time.Sleep(80 * time.Millisecond)
	assert.True(t, s.Tracker().IsDirty())

	// Commit flushes synchronously.
	require.NoError(t, txm.Commit(ctx))
	assert.False(t, s.Tracker().IsDirty())
}

func TestTxManager_RunInTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	txm := NewTxManager(s, logger.Nop())
	f := NewFlusher(s, txm, DefaultFlushDelay, logger.Nop())
	txm.AttachFlusher(f)
	defer f.Stop()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := txm.GetQuerier().ExecContext(ctx,
			"INSERT INTO companies (code, name) VALUES ('CMP-00006', 'Rollback Co')")
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM companies").Scan(&n))
	assert.Zero(t, n)
	assert.False(t, txm.InTransaction())
}

func TestTxManager_NestedBeginAbsorbed(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	txm := NewTxManager(s, logger.Nop())
	f := NewFlusher(s, txm, DefaultFlushDelay, logger.Nop())
	txm.AttachFlusher(f)
	defer f.Stop()

	var sawNested bool
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return txm.RunInTransaction(ctx, func(ctx context.Context) error {
			sawNested = txm.InTransaction()
			_, err := txm.GetQuerier().ExecContext(ctx,
				"INSERT INTO companies (code, name) VALUES ('CMP-00007', 'Nested Co')")
			return err
		})
	})
	require.NoError(t, err)
	assert.True(t, sawNested)
	assert.False(t, txm.InTransaction())

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM companies").Scan(&n))
	assert.Equal(t, 1, n)
}
