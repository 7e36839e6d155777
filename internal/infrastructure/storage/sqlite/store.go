// Package sqlite implements the persistence engine: an in-memory SQLite
// database acting as the relational executor, with explicit flush of the
// full state to a durable file. Single writer, single connection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/mattn/go-sqlite3"

	"sitekeeper/pkg/logger"
)

// Store owns the in-memory database and its durable copy on disk.
//
// The live database lives entirely in memory; Flush copies it over the
// backing file in place via the SQLite online backup API. This is not an
// atomic rename-based write: a crash mid-flush can corrupt the durable
// copy, which is why CreateBackup keeps a separate last-known-good file.
type Store struct {
	db   *sql.DB
	path string
	log  *logger.Logger

	tracker *Tracker
}

// Open creates the in-memory database and, if the backing file at path
// exists, loads its contents into memory. The file itself is only
// written by Flush.
func Open(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Default()
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}

	// One connection keeps the :memory: database alive and enforces
	// the single-writer model.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:      db,
		path:    path,
		log:     log.WithComponent("store"),
		tracker: NewTracker(),
	}

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		if err := s.load(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		s.log.Infow("loaded store from disk", "path", path, "size", info.Size())
	}

	return s, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Path returns the durable file path backing this store.
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying sql.DB. Prefer TxManager.GetQuerier in
// repositories; this is for maintenance queries only.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Tracker returns the mutation tracker for this store.
func (s *Store) Tracker() *Tracker {
	return s.tracker
}

// load replaces the in-memory contents with the on-disk file.
func (s *Store) load(ctx context.Context) error {
	src, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("open backing file: %w", err)
	}
	defer src.Close()

	if err := copyDatabase(ctx, s.db, src); err != nil {
		return err
	}

	// Pragmas do not survive the page-level copy.
	return applyPragmas(s.db)
}

// Flush exports the full in-memory state over the backing file.
//
// The destination is overwritten in place; see the type comment for the
// durability caveat. Flush blocks the caller until the copy completes.
func (s *Store) Flush(ctx context.Context) error {
	return s.ExportTo(ctx, s.path)
}

// ExportTo writes the full in-memory state to an arbitrary file path.
// Used by Flush (backing file) and CreateBackup (backup file).
func (s *Store) ExportTo(ctx context.Context, path string) error {
	dst, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open destination %s: %w", path, err)
	}
	defer dst.Close()

	if err := copyDatabase(ctx, dst, s.db); err != nil {
		return fmt.Errorf("export to %s: %w", path, err)
	}
	return nil
}

// Close releases the in-memory database without flushing. Callers that
// need durability must flush first (the shutdown path does).
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// copyDatabase copies the full contents of src over dst using the
// SQLite online backup API on the raw driver connections.
func copyDatabase(ctx context.Context, dst, src *sql.DB) error {
	dstConn, err := dst.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire destination conn: %w", err)
	}
	defer dstConn.Close()

	srcConn, err := src.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire source conn: %w", err)
	}
	defer srcConn.Close()

	return dstConn.Raw(func(rawDst any) error {
		return srcConn.Raw(func(rawSrc any) error {
			d, ok := rawDst.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("destination conn is %T, not sqlite3", rawDst)
			}
			sc, ok := rawSrc.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("source conn is %T, not sqlite3", rawSrc)
			}

			backup, err := d.Backup("main", sc, "main")
			if err != nil {
				return fmt.Errorf("start backup: %w", err)
			}

			// -1 copies all pages in one step.
			done, err := backup.Step(-1)
			if err != nil {
				_ = backup.Finish()
				return fmt.Errorf("backup step: %w", err)
			}
			if !done {
				_ = backup.Finish()
				return fmt.Errorf("backup did not complete in one step")
			}

			return backup.Finish()
		})
	})
}
