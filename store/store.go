// Package store persists the ledger as a single xlsx workbook, read and
// rewritten wholesale. It owns the file-format validation: the workbook's
// binary signature is checked before the file is trusted, and a file that
// fails the check is treated as absent rather than crashing the load.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/Paranganicu/bma-opticas/interfaces"
	"github.com/Paranganicu/bma-opticas/ledger"
	"github.com/Paranganicu/bma-opticas/logging"
)

// SheetName is the single worksheet holding the ledger.
const SheetName = "Pacientes"

// ErrBadSignature marks a store file whose binary content type is not an
// accepted spreadsheet format, regardless of its extension.
var ErrBadSignature = errors.New("store file is not a recognized spreadsheet format")

// acceptedMIMEs are the content types the store will open. Matching is on
// sniffed bytes, not the file name, as a defense against corrupted or
// renamed files.
var acceptedMIMEs = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
}

// FileStore reads and writes the ledger workbook at a fixed path.
type FileStore struct {
	path      string
	backupDir string
}

// Compile-time check that FileStore satisfies the store contract.
var _ interfaces.LedgerStore = (*FileStore)(nil)

// New creates a store for the given workbook path. Backups go to
// backupDir; an empty backupDir disables the backup policy.
func New(path, backupDir string) *FileStore {
	return &FileStore{path: path, backupDir: backupDir}
}

// Path returns the workbook path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the workbook and reconciles it to the canonical schema. A
// missing file yields an empty ledger with a nil error. A file that cannot
// be read, fails the signature check or cannot be parsed also yields an
// empty ledger, but with the error returned as an indicator so the operator
// sees a warning instead of silently losing their data file. Load never
// fails in a way that prevents the system from starting.
func (s *FileStore) Load() (*ledger.Ledger, []ledger.Substitution, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		empty, _ := ledger.Reconcile(nil)
		if os.IsNotExist(err) {
			return &empty, nil, nil
		}
		// An existing file we cannot read is degraded, same as a bad
		// signature, so the operator sees it in the health status.
		logging.Warn("Store file unreadable, starting with empty ledger", "path", s.path, "error", err)
		return &empty, nil, err
	}

	if !signatureOK(data) {
		logging.Warn("Store file failed spreadsheet signature check", "path", s.path)
		empty, _ := ledger.Reconcile(nil)
		return &empty, nil, ErrBadSignature
	}

	table, err := readTable(data)
	if err != nil {
		logging.Warn("Store file could not be parsed as a table", "path", s.path, "error", err)
		empty, _ := ledger.Reconcile(nil)
		return &empty, nil, err
	}

	l, subs := ledger.Reconcile(table)
	if len(subs) > 0 {
		logging.Warn("Default values substituted for unparseable cells",
			"count", len(subs), "path", s.path)
		for _, sub := range subs {
			logging.Debug("Cell substitution",
				"row", sub.Row, "column", sub.Column, "raw", sub.Raw, "applied", sub.Applied)
		}
	}

	return &l, subs, nil
}

// Save writes the full ledger back, overwriting the previous workbook.
// The write goes to a uniquely named temp file in the target directory and
// is then renamed over the store, so an interrupted save cannot leave a
// structurally corrupt workbook behind. Concurrent writers still race
// last-save-wins; that is accepted for a single-operator tool. An existing
// file is first copied into the backup directory; backup failures are
// logged and never block the save.
func (s *FileStore) Save(l *ledger.Ledger) error {
	buf, err := buildWorkbook(l)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if _, err := s.Backup(); err != nil {
			logging.Warn("Backup before save failed", "error", err)
		}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".pacientes-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	// The temp file must not survive a failed save.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp workbook: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	logging.Info("Ledger saved", "path", s.path, "rows", len(l.Rows))
	return nil
}

// signatureOK sniffs the binary content type of the data.
func signatureOK(data []byte) bool {
	mtype := mimetype.Detect(data)
	for _, accepted := range acceptedMIMEs {
		if mtype.Is(accepted) {
			return true
		}
	}
	return false
}

// readTable extracts the first sheet into a raw table: first row is the
// header, the rest are data rows.
func readTable(data []byte) (*ledger.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close workbook after read", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	table := &ledger.RawTable{}
	if len(rows) > 0 {
		table.Columns = rows[0]
		table.Rows = rows[1:]
	}
	return table, nil
}

// buildWorkbook renders the ledger into an in-memory xlsx workbook with
// the canonical header on the single sheet.
func buildWorkbook(l *ledger.Ledger) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so Close only on the error paths.

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	table := l.ToTable()
	if err := writeRow(f, 1, table.Columns); err != nil {
		f.Close()
		return nil, err
	}
	for i, cells := range table.Rows {
		if err := writeRow(f, i+2, cells); err != nil {
			f.Close()
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return &buf, nil
}

func writeRow(f *excelize.File, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to compute cell name for row %d: %w", rowNum, err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
