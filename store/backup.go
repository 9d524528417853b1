package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Paranganicu/bma-opticas/logging"
)

// backupStamp is the timestamp suffix on backup file names.
const backupStamp = "20060102-150405"

// Backup copies the current store file into the backup directory under a
// timestamped name. Backups are archival only and never read back by the
// application. Returns the written path.
func (s *FileStore) Backup() (string, error) {
	if s.backupDir == "" {
		return "", fmt.Errorf("no backup directory configured")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to read store file for backup: %w", err)
	}

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	name := fmt.Sprintf("%s-%s.xlsx", base, time.Now().Format(backupStamp))
	dest := filepath.Join(s.backupDir, name)

	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", dest, err)
	}

	logging.Info("Store backup written", "path", dest, "bytes", len(data))
	return dest, nil
}

// CleanupBackups deletes backups older than the retention period. A zero
// or negative retention disables cleanup.
func (s *FileStore) CleanupBackups(retention time.Duration) error {
	if s.backupDir == "" || retention <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	cutoff := time.Now().Add(-retention)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base+"-") || !strings.HasSuffix(entry.Name(), ".xlsx") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.backupDir, entry.Name())); err == nil {
				deleted++
			}
		}
	}

	if deleted > 0 {
		logging.Info("Old backups removed", "count", deleted)
	}
	return nil
}
