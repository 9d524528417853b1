// Package health reports system status for the /health endpoint.
package health

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Paranganicu/bma-opticas/interfaces"
)

// Checker builds health snapshots from the ledger container and the
// scheduler's backup timetable.
type Checker struct {
	container  interfaces.LedgerContainer
	storePath  string
	nextBackup func() time.Time
}

// Compile-time check that Checker implements HealthChecker.
var _ interfaces.HealthChecker = (*Checker)(nil)

// New creates a health checker. nextBackup may be nil when no backup job
// is scheduled.
func New(container interfaces.LedgerContainer, storePath string, nextBackup func() time.Time) *Checker {
	return &Checker{container: container, storePath: storePath, nextBackup: nextBackup}
}

// HealthCheck returns the current status and its details. The status is
// "degraded" while the service runs on an empty ledger because the store
// file failed its format check; that state is a visible warning, never a
// crash.
func (c *Checker) HealthCheck() (string, map[string]any, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	l := c.container.Ledger()
	patients := make(map[string]bool, len(l.Rows))
	for _, row := range l.Rows {
		patients[row.RUT] = true
	}

	status := "healthy"
	details := map[string]any{
		"uptime":          formatUptimeHuman(time.Since(c.container.ServerStartTime())),
		"memory_usage_mb": int(m.Alloc / 1024 / 1024),
		"rows":            len(l.Rows),
		"patients":        len(patients),
		"store_path":      c.storePath,
		"last_loaded":     c.container.LastLoaded().Format(time.RFC3339),
		"last_saved":      c.container.LastSaved().Format(time.RFC3339),
	}

	if c.nextBackup != nil {
		details["next_backup"] = c.nextBackup().Format(time.RFC3339)
	}

	if c.container.Degraded() {
		status = "degraded"
		details["warning"] = "store file failed the spreadsheet format check; running on an empty ledger"
	}

	return status, details, nil
}

// formatUptimeHuman formats a duration like "2d 3h 4m 5s".
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
