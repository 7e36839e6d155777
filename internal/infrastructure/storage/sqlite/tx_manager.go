package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sitekeeper/internal/core/tx"
	"sitekeeper/pkg/logger"
)

var tracer = otel.Tracer("sitekeeper/tx")

// Compile-time check that TxManager implements the coordinator contract.
var _ tx.Coordinator = (*TxManager)(nil)

// Querier is the subset of database/sql operations repositories use.
// Both *sql.DB and *sql.Tx satisfy it, so repositories work inside and
// outside transactions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager is the transaction coordinator for the store.
//
// States: Idle -> Open -> {Committed, RolledBack} -> Idle. Begin while
// Open is silently absorbed (non-reentrant guard): the outer transaction
// owns atomicity. Commit forces a synchronous flush; Rollback does not
// flush. There is no auto-rollback around Begin/Commit usage - callers
// (the batch executor, RunInTransaction) are responsible for reaching
// Rollback on failure.
type TxManager struct {
	store   *Store
	flusher *Flusher
	log     *logger.Logger

	mu      sync.Mutex
	current *sql.Tx
}

// NewTxManager creates a coordinator for the store. Attach the deferred
// flusher with AttachFlusher before use so Commit can flush.
func NewTxManager(store *Store, log *logger.Logger) *TxManager {
	if log == nil {
		log = logger.Default()
	}
	return &TxManager{
		store: store,
		log:   log.WithComponent("tx"),
	}
}

// AttachFlusher wires the deferred flush scheduler. Commit uses it for
// the synchronous flush-now path.
func (m *TxManager) AttachFlusher(f *Flusher) {
	m.flusher = f
}

// Begin opens a transaction. A no-op if one is already open.
func (m *TxManager) Begin(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		// Nested begin absorbed; the outer transaction owns atomicity.
		return nil
	}

	t, err := m.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	m.current = t
	return nil
}

// Commit finalizes the open transaction, then forces a synchronous
// flush so the committed state is durable before returning.
func (m *TxManager) Commit(ctx context.Context) error {
	m.mu.Lock()
	t := m.current
	m.current = nil
	m.mu.Unlock()

	if t == nil {
		return fmt.Errorf("commit: no open transaction")
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if m.flusher != nil {
		if err := m.flusher.FlushNow(ctx); err != nil {
			// The in-memory commit stands; durability is degraded until
			// the next successful flush.
			m.log.Errorw("post-commit flush failed", "error", err)
			return err
		}
	}
	return nil
}

// Rollback reverts the open transaction without flushing.
func (m *TxManager) Rollback(ctx context.Context) error {
	m.mu.Lock()
	t := m.current
	m.current = nil
	m.mu.Unlock()

	if t == nil {
		return fmt.Errorf("rollback: no open transaction")
	}
	if err := t.Rollback(); err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// InTransaction reports whether a transaction is currently open.
// The deferred flusher uses this to suppress flushes of half-committed
// in-memory state.
func (m *TxManager) InTransaction() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// RunInTransaction executes fn within a transaction.
// A nested call reuses the open transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.Bool("tx.nested", m.InTransaction())))
	defer span.End()

	if m.InTransaction() {
		return fn(ctx)
	}

	if err := m.Begin(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		if rbErr := m.Rollback(ctx); rbErr != nil {
			m.log.Errorw("rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}
	return m.Commit(ctx)
}

// GetQuerier returns the open transaction if any, otherwise the database.
func (m *TxManager) GetQuerier() Querier {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return m.current
	}
	return m.store.db
}

// NotifyMutation records a state change: marks the store dirty and arms
// the deferred flush. Every repository write path calls this.
func (m *TxManager) NotifyMutation() {
	m.store.tracker.MarkDirty()
	if m.flusher != nil {
		m.flusher.Schedule()
	}
}
