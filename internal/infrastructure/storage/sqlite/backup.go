package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

const (
	// BackupFileName is the single retained backup (not versioned);
	// each CreateBackup overwrites it.
	BackupFileName = "sitekeeper.backup.db"

	// BackupMetaFileName is the JSON sidecar next to the backup file.
	BackupMetaFileName = "sitekeeper.backup.json"
)

// BackupMeta is the sidecar recorded next to the backup file.
type BackupMeta struct {
	LastBackup time.Time `json:"lastBackup"`
	Size       int64     `json:"size"`
}

// BackupInfo describes a completed backup.
type BackupInfo struct {
	Path     string
	MetaPath string
	Meta     BackupMeta
}

// CreateBackup exports the full store state to dir under the fixed
// backup filename and writes the metadata sidecar. The backup file is a
// plain SQLite database, directly usable for restore-from-backup.
//
// CreateBackup does not clear the dirty flag; that is the caller's
// responsibility after confirming the backup succeeded (the cloud
// transport does exactly that).
func (s *Store) CreateBackup(ctx context.Context, dir string) (BackupInfo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(dir, BackupFileName)
	if err := s.ExportTo(ctx, path); err != nil {
		return BackupInfo{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}

	meta := BackupMeta{
		LastBackup: time.Now().UTC(),
		Size:       info.Size(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return BackupInfo{}, fmt.Errorf("marshal backup meta: %w", err)
	}

	metaPath := filepath.Join(dir, BackupMetaFileName)
	if err := atomic.WriteFile(metaPath, bytes.NewReader(data)); err != nil {
		return BackupInfo{}, fmt.Errorf("write backup meta: %w", err)
	}

	s.log.Infow("backup created", "path", path, "size", meta.Size)
	return BackupInfo{Path: path, MetaPath: metaPath, Meta: meta}, nil
}
