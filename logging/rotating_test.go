package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRotatingWriter_WritesWeeklyFile(t *testing.T) {
	dir := t.TempDir()
	rw := NewRotatingWriter(dir, 4)
	defer rw.Close()

	if _, err := rw.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := filepath.Join(dir, "app-"+weekKey(time.Now())+".log")
	data, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("expected log file %s: %v", expected, err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file does not contain the written line: %q", data)
	}
}

func TestRotatingWriter_AppendsAcrossWrites(t *testing.T) {
	dir := t.TempDir()
	rw := NewRotatingWriter(dir, 4)
	defer rw.Close()

	rw.Write([]byte("one\n"))
	rw.Write([]byte("two\n"))

	path := filepath.Join(dir, "app-"+weekKey(time.Now())+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "one") || !strings.Contains(string(data), "two") {
		t.Errorf("both lines should land in the same weekly file: %q", data)
	}
}

func TestRotatingWriter_CleanupRemovesExpired(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "app-2020-W01.log")
	if err := os.WriteFile(old, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-8 * 7 * 24 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	rw := NewRotatingWriter(dir, 4)
	defer rw.Close()
	if _, err := rw.Write([]byte("fresh\n")); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired log file should be removed on rotation")
	}
}

func TestWeekKey(t *testing.T) {
	if got := weekKey(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)); got != "2026-W02" {
		t.Errorf("weekKey = %q, expected 2026-W02", got)
	}
}

func TestSetup_FallsBackWithoutDirectory(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	logger := Setup(blocked, 4)
	if logger == nil {
		t.Fatal("Setup must always return a usable logger")
	}
	logger.Info("still works")
}
