package sqlite

import "sync"

// Tracker is the process-wide dirty flag. Every mutating operation marks
// it; it is cleared only once durable state is confirmed written (by a
// successful flush, or by the backup caller after a verified backup).
type Tracker struct {
	mu    sync.Mutex
	dirty bool
}

// NewTracker returns a clean tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// MarkDirty records that unflushed mutations exist.
func (t *Tracker) MarkDirty() {
	t.mu.Lock()
	t.dirty = true
	t.mu.Unlock()
}

// IsDirty reports whether unflushed mutations exist.
func (t *Tracker) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// ClearDirty resets the flag. Call only after durable state is written.
func (t *Tracker) ClearDirty() {
	t.mu.Lock()
	t.dirty = false
	t.mu.Unlock()
}
