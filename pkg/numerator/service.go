// Package numerator provides auto-numbering for catalog codes and
// document numbers backed by the sys_sequences table.
package numerator

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Querier is the minimal database surface the numerator needs. Both
// *sql.DB and *sql.Tx satisfy it, so numbers allocated inside a
// transaction roll back with it.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QuerierFunc resolves the querier at call time, so the numerator
// follows the caller in and out of transactions.
type QuerierFunc func() Querier

// Config holds numbering configuration for one sequence.
type Config struct {
	// Prefix added to all numbers (e.g. "PRJ", "MAT")
	Prefix string

	// IncludeYear adds the year to the formatted number
	IncludeYear bool

	// PadWidth is the minimum numeric width (default 5)
	PadWidth int

	// ResetPeriod: "year" or "never"
	ResetPeriod string
}

// DefaultConfig returns yearly-resetting defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Service allocates sequential numbers. Allocation is strict: every
// number comes from a single UPSERT + RETURNING round trip, so numbers
// are gapless within a sequence as long as the enclosing transaction
// commits.
type Service struct {
	querier QuerierFunc
}

// New creates a numerator over the given querier source.
func New(querier QuerierFunc) *Service {
	return &Service{querier: querier}
}

// GetNextNumber allocates and formats the next number for the sequence
// described by cfg. Pattern: PREFIX-YEAR-XXXXX, or PREFIX-XXXXX when
// the year is excluded.
func (s *Service) GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	year := 0
	if cfg.ResetPeriod == "year" {
		year = period.Year()
	}

	var num int64
	err := s.querier().QueryRowContext(ctx, `
		INSERT INTO sys_sequences (sequence_type, year, current_val)
		VALUES (?, ?, 1)
		ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, cfg.Prefix, year).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", cfg.Prefix, err)
	}

	return FormatNumber(cfg, period, num), nil
}

// SetNextNumber forces the counter so the next allocation returns
// value+1. Used when importing data that already carries numbers.
func (s *Service) SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error {
	year := 0
	if cfg.ResetPeriod == "year" {
		year = period.Year()
	}

	var result int64
	err := s.querier().QueryRowContext(ctx, `
		INSERT INTO sys_sequences (sequence_type, year, current_val)
		VALUES (?, ?, ?)
		ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = excluded.current_val
		RETURNING current_val
	`, cfg.Prefix, year, value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set number for %s: %w", cfg.Prefix, err)
	}
	return nil
}

// FormatNumber renders a sequence value in the configured pattern.
func FormatNumber(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number:
// everything after the last dash, so both PREFIX-XXXXX and
// PREFIX-YEAR-XXXXX parse the same way. Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	i := strings.LastIndexByte(formatted, '-')
	if i < 0 || i == len(formatted)-1 {
		return -1
	}

	num, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil || num < 0 {
		return -1
	}
	return num
}
