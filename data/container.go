// Package data provides the session-scoped container for the in-memory
// ledger. Readers get immutable snapshots through an atomic pointer;
// submissions are serialized and replace the snapshot wholesale, so the
// HTTP layer never observes a half-applied mutation.
package data

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Paranganicu/bma-opticas/interfaces"
	"github.com/Paranganicu/bma-opticas/ledger"
	"github.com/Paranganicu/bma-opticas/logging"
)

// Compile-time check that Container implements LedgerContainer.
var _ interfaces.LedgerContainer = (*Container)(nil)

// Container owns the ledger for the duration of a process run. The UI
// layer borrows read snapshots and mutates through Update; nothing else
// holds mutable ledger state.
type Container struct {
	ledger          atomic.Value // *ledger.Ledger
	lastLoaded      atomic.Value // time.Time
	lastSaved       atomic.Value // time.Time
	serverStartTime atomic.Value // time.Time
	degraded        atomic.Bool

	mu sync.Mutex // serializes Update calls
}

// NewContainer creates a container holding an empty ledger.
func NewContainer() *Container {
	c := &Container{}
	c.ledger.Store(&ledger.Ledger{Rows: []ledger.Row{}})
	c.lastLoaded.Store(time.Time{})
	c.lastSaved.Store(time.Time{})
	c.serverStartTime.Store(time.Time{})
	return c
}

// Ledger returns the current snapshot. Callers must treat it as read-only.
func (c *Container) Ledger() *ledger.Ledger {
	if v := c.ledger.Load(); v != nil {
		if l, ok := v.(*ledger.Ledger); ok {
			return l
		}
	}

	logging.Warn("Ledger snapshot is empty or invalid")
	return &ledger.Ledger{Rows: []ledger.Row{}}
}

// ReplaceLedger installs a freshly loaded ledger and records whether the
// load ran degraded (store file present but unusable).
func (c *Container) ReplaceLedger(l *ledger.Ledger, degraded bool) {
	c.ledger.Store(l)
	c.lastLoaded.Store(time.Now())
	c.degraded.Store(degraded)
}

// Update runs fn against a working copy of the current ledger while
// holding the submission lock. When fn succeeds the copy atomically
// replaces the snapshot; when it fails the snapshot is untouched, which
// gives submissions their all-or-nothing behavior.
func (c *Container) Update(fn func(*ledger.Ledger) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.Ledger()
	working := &ledger.Ledger{Rows: make([]ledger.Row, len(current.Rows))}
	copy(working.Rows, current.Rows)

	if err := fn(working); err != nil {
		return err
	}

	c.ledger.Store(working)
	return nil
}

// MarkSaved records a successful persist.
func (c *Container) MarkSaved() {
	c.lastSaved.Store(time.Now())
}

// Degraded reports whether the last load fell back to an empty ledger
// because of a store format problem.
func (c *Container) Degraded() bool {
	return c.degraded.Load()
}

// LastLoaded returns when the ledger was last loaded from the store.
func (c *Container) LastLoaded() time.Time {
	return c.timeValue(&c.lastLoaded, "last loaded")
}

// LastSaved returns when the ledger was last persisted.
func (c *Container) LastSaved() time.Time {
	return c.timeValue(&c.lastSaved, "last saved")
}

// SetServerStartTime sets the server start time.
func (c *Container) SetServerStartTime(startTime time.Time) {
	c.serverStartTime.Store(startTime)
}

// ServerStartTime returns the server start time.
func (c *Container) ServerStartTime() time.Time {
	return c.timeValue(&c.serverStartTime, "server start")
}

func (c *Container) timeValue(v *atomic.Value, what string) time.Time {
	if raw := v.Load(); raw != nil {
		if t, ok := raw.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get container timestamp", "which", what)
	return time.Time{}
}
