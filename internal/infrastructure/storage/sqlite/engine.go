package sqlite

import (
	"context"
	"time"

	"sitekeeper/pkg/logger"
)

// Engine bundles the store with its coordinator and flush scheduler.
// There is no global instance: callers hold the handle and pass it to
// repositories, which keeps test stores isolated from each other.
type Engine struct {
	Store   *Store
	Tx      *TxManager
	Flusher *Flusher
}

// Options configures engine construction.
type Options struct {
	// FlushDelay is the deferred-flush debounce window.
	// Zero means DefaultFlushDelay.
	FlushDelay time.Duration

	Logger *logger.Logger
}

// NewEngine opens (or creates) the store at path and wires the
// coordinator and the deferred flusher together.
func NewEngine(path string, opts Options) (*Engine, error) {
	store, err := Open(path, opts.Logger)
	if err != nil {
		return nil, err
	}

	txm := NewTxManager(store, opts.Logger)
	flusher := NewFlusher(store, txm, opts.FlushDelay, opts.Logger)
	txm.AttachFlusher(flusher)

	return &Engine{Store: store, Tx: txm, Flusher: flusher}, nil
}

// Close stops the flush scheduler, writes any unflushed state, and
// releases the in-memory database.
func (e *Engine) Close(ctx context.Context) error {
	e.Flusher.Stop()
	if e.Store.tracker.IsDirty() {
		if err := e.Flusher.FlushNow(ctx); err != nil {
			return err
		}
	}
	return e.Store.Close()
}
