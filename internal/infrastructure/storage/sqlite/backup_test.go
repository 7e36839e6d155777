package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitekeeper/pkg/logger"
)

func TestCreateBackup_FileAndSidecar(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	insertCompany(t, s, "CMP-00001", "Backup Co")

	dir := t.TempDir()
	info, err := s.CreateBackup(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, BackupFileName), info.Path)

	// The backup is a plain openable database.
	restored, err := Open(info.Path, logger.Nop())
	require.NoError(t, err)
	defer restored.Close()
	var n int
	require.NoError(t, restored.DB().QueryRow("SELECT COUNT(*) FROM companies").Scan(&n))
	assert.Equal(t, 1, n)

	// Sidecar records timestamp and size.
	raw, err := os.ReadFile(info.MetaPath)
	require.NoError(t, err)
	var meta BackupMeta
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.False(t, meta.LastBackup.IsZero())

	stat, err := os.Stat(info.Path)
	require.NoError(t, err)
	assert.Equal(t, stat.Size(), meta.Size)
}

func TestCreateBackup_DoesNotClearDirty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Tracker().MarkDirty()
	_, err := s.CreateBackup(ctx, t.TempDir())
	require.NoError(t, err)

	// Clearing is the caller's job after confirming the backup.
	assert.True(t, s.Tracker().IsDirty())
	s.Tracker().ClearDirty()
	assert.False(t, s.Tracker().IsDirty())

	// Any subsequent mutation re-marks the store.
	txm := NewTxManager(s, logger.Nop())
	txm.NotifyMutation()
	assert.True(t, s.Tracker().IsDirty())
}

func TestCheckIntegrity_CleanStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	problems, err := s.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestCheckForeignKeys_ReportsViolations(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	violations, err := s.CheckForeignKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)

	// Sneak in an orphaned row with enforcement off.
	_, err = s.DB().Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = s.DB().Exec(`
		INSERT INTO stock_movements
			(created_at, updated_at, material_id, kind, quantity, move_date)
		VALUES ('2025-01-01', '2025-01-01', 999, 'in', '1', '2025-01-01')`)
	require.NoError(t, err)
	_, err = s.DB().Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	violations, err = s.CheckForeignKeys(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, violations)
	assert.Equal(t, "stock_movements", violations[0].Table)
}
