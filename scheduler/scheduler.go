// Package scheduler runs the automated jobs around the store: the nightly
// backup of the workbook, backup retention cleanup, and an hourly monitor
// that keeps warning while the service runs degraded.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/Paranganicu/bma-opticas/interfaces"
	"github.com/Paranganicu/bma-opticas/logging"
	"github.com/Paranganicu/bma-opticas/metrics"
)

// backupTime is when the nightly backup job fires.
const backupTime = "02:00"

// BackupScheduler owns the gocron scheduler and the jobs on it.
type BackupScheduler struct {
	store     interfaces.LedgerStore
	container interfaces.LedgerContainer
	scheduler *gocron.Scheduler
	retention time.Duration
	stopMon   chan struct{}
}

// Compile-time check that BackupScheduler implements Scheduler.
var _ interfaces.Scheduler = (*BackupScheduler)(nil)

// New creates the scheduler. retentionDays bounds how long backups are
// kept; zero keeps them forever.
func New(store interfaces.LedgerStore, container interfaces.LedgerContainer, retentionDays int) *BackupScheduler {
	return &BackupScheduler{
		store:     store,
		container: container,
		scheduler: gocron.NewScheduler(time.Local),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		stopMon:   make(chan struct{}),
	}
}

// Start schedules the nightly backup and launches the degraded-state
// monitor.
func (s *BackupScheduler) Start() error {
	_, err := s.scheduler.Every(1).Days().At(backupTime).Do(s.runBackup)
	if err != nil {
		logging.Error("Failed to schedule backups", "error", err)
		return fmt.Errorf("failed to schedule backups: %w", err)
	}

	s.scheduler.StartAsync()
	s.startMonitoring()
	return nil
}

// Stop stops the scheduler and the monitor.
func (s *BackupScheduler) Stop() {
	s.scheduler.Stop()
	close(s.stopMon)
}

// runBackup copies the store file aside and prunes expired backups. A
// missing store file (nothing ever saved) is not an error worth waking
// anyone for.
func (s *BackupScheduler) runBackup() {
	path, err := s.store.Backup()
	if err != nil {
		logging.Warn("Scheduled backup failed", "error", err)
	} else {
		metrics.BackupsWritten.Inc()
		logging.Info("Scheduled backup completed", "path", path)
	}

	if err := s.store.CleanupBackups(s.retention); err != nil {
		logging.Warn("Backup cleanup failed", "error", err)
	}
}

// startMonitoring keeps reminding the operator while the service runs on
// an empty ledger because the store file failed its format check.
func (s *BackupScheduler) startMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopMon:
				return
			case <-ticker.C:
				if s.container.Degraded() {
					logging.Warn("Store is still degraded; submissions are saved to a fresh workbook",
						"path", s.store.Path())
				}
			}
		}
	}()
}

// NextBackup returns the next time the nightly backup will fire.
func NextBackup() time.Time {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), 2, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
