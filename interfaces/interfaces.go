// Package interfaces defines the core abstractions of the service so that
// handlers, the scheduler and the health checker can be exercised against
// fakes in tests.
package interfaces

import (
	"time"

	"github.com/Paranganicu/bma-opticas/ledger"
)

// LedgerStore is the persistence contract: wholesale load and save of the
// ledger workbook plus the archival backup policy.
type LedgerStore interface {
	// Load reads and reconciles the store. The error is a format-error
	// indicator: when non-nil the returned ledger is empty and the store
	// ran degraded, but the system keeps working.
	Load() (*ledger.Ledger, []ledger.Substitution, error)

	// Save overwrites the store with the full ledger.
	Save(l *ledger.Ledger) error

	// Backup copies the current store file into the backup directory.
	Backup() (string, error)

	// CleanupBackups removes backups older than the retention period.
	CleanupBackups(retention time.Duration) error

	// Path returns the workbook path.
	Path() string
}

// LedgerContainer is the session-scoped context holding the in-memory
// ledger between requests.
type LedgerContainer interface {
	Ledger() *ledger.Ledger
	ReplaceLedger(l *ledger.Ledger, degraded bool)
	Update(fn func(*ledger.Ledger) error) error
	MarkSaved()
	Degraded() bool
	LastLoaded() time.Time
	LastSaved() time.Time
	SetServerStartTime(t time.Time)
	ServerStartTime() time.Time
}

// Scheduler manages the automated backup job and staleness monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports system health.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, err error)
}
