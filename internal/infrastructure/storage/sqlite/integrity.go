package sqlite

import (
	"context"
	"fmt"
)

// FKViolation is one row from PRAGMA foreign_key_check.
type FKViolation struct {
	Table  string `json:"table"`
	RowID  int64  `json:"rowId"`
	Parent string `json:"parent"`
	FKID   int64  `json:"fkId"`
}

func (v FKViolation) String() string {
	return fmt.Sprintf("%s row %d references missing %s (fk %d)", v.Table, v.RowID, v.Parent, v.FKID)
}

// CheckIntegrity runs a whole-store consistency scan. Returns the list
// of problems reported by SQLite; empty means the store is sound.
// Callers should block startup on a non-empty result.
func (s *Store) CheckIntegrity(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, fmt.Errorf("integrity_check: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan integrity_check: %w", err)
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	return problems, rows.Err()
}

// CheckForeignKeys scans all foreign keys. Violations are returned as a
// list; callers may tolerate these as warnings (unlike CheckIntegrity).
func (s *Store) CheckForeignKeys(ctx context.Context) ([]FKViolation, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return nil, fmt.Errorf("foreign_key_check: %w", err)
	}
	defer rows.Close()

	var violations []FKViolation
	for rows.Next() {
		var v FKViolation
		if err := rows.Scan(&v.Table, &v.RowID, &v.Parent, &v.FKID); err != nil {
			return nil, fmt.Errorf("scan foreign_key_check: %w", err)
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}
