package sqlite

import (
	"context"
	"sync"
	"time"

	"sitekeeper/pkg/logger"
)

// DefaultFlushDelay is the debounce window for deferred flushes.
const DefaultFlushDelay = 100 * time.Millisecond

// txState is what the flusher needs to know about the coordinator.
type txState interface {
	InTransaction() bool
}

// Flusher coalesces bursts of mutations into a single disk write.
//
// Schedule (re)arms a debounce timer; repeated calls within the window
// collapse into one flush. The deferred flush is skipped while a
// transaction is open - commit performs its own synchronous flush.
// Callers that need durability immediately (shutdown, backup) must use
// FlushNow instead of relying on the timer.
type Flusher struct {
	store *Store
	coord txState
	delay time.Duration
	log   *logger.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewFlusher creates a deferred flush scheduler for the store.
func NewFlusher(store *Store, coord txState, delay time.Duration, log *logger.Logger) *Flusher {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	if log == nil {
		log = logger.Default()
	}
	return &Flusher{
		store: store,
		coord: coord,
		delay: delay,
		log:   log.WithComponent("flusher"),
	}
}

// Schedule (re)arms the debounce timer. The pending flush, if any, is
// replaced rather than stacked.
func (f *Flusher) Schedule() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.delay, f.fire)
}

// fire runs the deferred flush.
func (f *Flusher) fire() {
	if f.coord != nil && f.coord.InTransaction() {
		// Half-committed in-memory state must not reach disk;
		// commit will flush synchronously.
		f.log.Debugw("deferred flush skipped: transaction open")
		return
	}
	if err := f.FlushNow(context.Background()); err != nil {
		f.log.Errorw("deferred flush failed", "error", err)
	}
}

// FlushNow cancels any pending deferred flush and synchronously writes
// the full state to the backing file, clearing the dirty flag on
// success.
func (f *Flusher) FlushNow(ctx context.Context) error {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()

	if err := f.store.Flush(ctx); err != nil {
		return err
	}
	f.store.tracker.ClearDirty()
	return nil
}

// Stop cancels any pending deferred flush without writing.
func (f *Flusher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
