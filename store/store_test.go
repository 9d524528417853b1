package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Paranganicu/bma-opticas/ledger"
)

func testStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "Pacientes.xlsx"), filepath.Join(dir, "backups"))
}

func sampleLedger() *ledger.Ledger {
	return &ledger.Ledger{Rows: []ledger.Row{
		{
			RUT:        "12.345.678-5",
			Nombre:     "Juan Pérez",
			Edad:       45,
			TipoLente:  ledger.LenteMonofocal,
			Valor:      50000,
			FormaPago:  ledger.PagoEfectivo,
			FechaVenta: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			ODSph:      "-1.00",
		},
		{
			RUT:       "11.111.111-1",
			Nombre:    "Ana Soto",
			Edad:      30,
			TipoLente: ledger.LenteProgresivo,
			Valor:     120000,
			FormaPago: ledger.PagoDebito,
		},
	}}
}

func TestLoad_MissingFile(t *testing.T) {
	s := testStore(t)

	l, subs, err := s.Load()
	if err != nil {
		t.Fatalf("a missing file is a fresh start, not an error: %v", err)
	}
	if len(l.Rows) != 0 {
		t.Errorf("expected empty ledger, got %d rows", len(l.Rows))
	}
	if len(subs) != 0 {
		t.Errorf("expected no substitutions, got %d", len(subs))
	}
}

func TestLoad_BadSignature(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.Path(), []byte("this is not a workbook"), 0644); err != nil {
		t.Fatal(err)
	}

	l, _, err := s.Load()
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
	if len(l.Rows) != 0 {
		t.Errorf("a rejected file must yield an empty ledger, got %d rows", len(l.Rows))
	}

	// The original file must be left untouched for the operator to inspect.
	data, err := os.ReadFile(s.Path())
	if err != nil || string(data) != "this is not a workbook" {
		t.Error("load must never modify a rejected store file")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := testStore(t)
	original := sampleLedger()

	if err := s.Save(original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, subs, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("a freshly saved workbook should load clean, got %v", subs)
	}
	if len(loaded.Rows) != len(original.Rows) {
		t.Fatalf("row count changed: saved %d, loaded %d", len(original.Rows), len(loaded.Rows))
	}

	for i, row := range loaded.Rows {
		want := original.Rows[i]
		if row.RUT != want.RUT || row.Nombre != want.Nombre {
			t.Errorf("row %d identity mismatch: %+v vs %+v", i, row, want)
		}
		if row.Edad != want.Edad || row.Valor != want.Valor {
			t.Errorf("row %d numeric mismatch: %+v vs %+v", i, row, want)
		}
		if !row.FechaVenta.Equal(want.FechaVenta) {
			t.Errorf("row %d date mismatch: %v vs %v", i, row.FechaVenta, want.FechaVenta)
		}
		if row.ODSph != want.ODSph {
			t.Errorf("row %d prescription mismatch: %q vs %q", i, row.ODSph, want.ODSph)
		}
	}
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	s := testStore(t)
	if err := s.Save(sampleLedger()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if entry.Name() != filepath.Base(s.Path()) && entry.Name() != "backups" {
			t.Errorf("unexpected file left in store directory: %s", entry.Name())
		}
	}
}

func TestSave_ConcurrentWritersKeepFileLoadable(t *testing.T) {
	// Last-save-wins between racing writers is accepted; a structurally
	// corrupt file is not. All writers carry the same ledger here, so the
	// winner is indistinguishable and the file must load clean.
	s := testStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Save(sampleLedger()); err != nil {
				t.Errorf("concurrent Save failed: %v", err)
			}
		}()
	}
	wg.Wait()

	loaded, subs, err := s.Load()
	if err != nil {
		t.Fatalf("file must stay loadable after racing saves: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("surviving workbook should load clean, got %v", subs)
	}
	if len(loaded.Rows) != 2 {
		t.Errorf("surviving workbook should hold the written ledger, got %d rows", len(loaded.Rows))
	}
}

func TestLoad_UnreadableFile(t *testing.T) {
	s := testStore(t)

	// A directory at the store path makes the read fail while the path
	// still exists.
	if err := os.MkdirAll(s.Path(), 0755); err != nil {
		t.Fatal(err)
	}

	l, _, err := s.Load()
	if err == nil {
		t.Fatal("an existing file that cannot be read must surface the error")
	}
	if len(l.Rows) != 0 {
		t.Errorf("unreadable store must yield an empty ledger, got %d rows", len(l.Rows))
	}
}

func TestSave_BacksUpExistingFile(t *testing.T) {
	s := testStore(t)

	if err := s.Save(sampleLedger()); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := s.Save(sampleLedger()); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(filepath.Dir(s.Path()), "backups"))
	if err != nil {
		t.Fatalf("backup directory missing after overwrite: %v", err)
	}
	if len(entries) == 0 {
		t.Error("overwriting an existing store must leave a backup")
	}
}

func TestBackup_NoDirectoryConfigured(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "Pacientes.xlsx"), "")

	if _, err := s.Backup(); err == nil {
		t.Error("Backup without a backup directory should fail")
	}
}

func TestCleanupBackups(t *testing.T) {
	s := testStore(t)
	backupDir := filepath.Join(filepath.Dir(s.Path()), "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		t.Fatal(err)
	}

	old := filepath.Join(backupDir, "Pacientes-20200101-000000.xlsx")
	recent := filepath.Join(backupDir, "Pacientes-20991231-000000.xlsx")
	for _, path := range []string{old, recent} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	if err := s.CleanupBackups(24 * time.Hour); err != nil {
		t.Fatalf("CleanupBackups failed: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired backup should be removed")
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("recent backup should survive cleanup")
	}
}

func TestCleanupBackups_DisabledRetention(t *testing.T) {
	s := testStore(t)
	if err := s.CleanupBackups(0); err != nil {
		t.Errorf("zero retention disables cleanup, got %v", err)
	}
}
