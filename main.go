package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Paranganicu/bma-opticas/config"
	"github.com/Paranganicu/bma-opticas/data"
	"github.com/Paranganicu/bma-opticas/handlers"
	"github.com/Paranganicu/bma-opticas/health"
	"github.com/Paranganicu/bma-opticas/logging"
	"github.com/Paranganicu/bma-opticas/metrics"
	"github.com/Paranganicu/bma-opticas/scheduler"
	"github.com/Paranganicu/bma-opticas/server"
	"github.com/Paranganicu/bma-opticas/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.Init(cfg.LogDir, cfg.LogRetentionWeeks)

	container := data.NewContainer()
	container.SetServerStartTime(time.Now())

	fileStore := store.New(cfg.DataFile, cfg.BackupDir)

	// Initial load. A format failure degrades to an empty ledger with a
	// warning; only that, never a refusal to start.
	l, subs, formatErr := fileStore.Load()
	container.ReplaceLedger(l, formatErr != nil)
	metrics.LedgerRows.Set(float64(len(l.Rows)))
	if formatErr != nil {
		logging.Warn("Starting in degraded mode", "path", cfg.DataFile, "error", formatErr)
	}
	logging.Info("Ledger loaded", "rows", len(l.Rows), "substitutions", len(subs))

	backups := scheduler.New(fileStore, container, cfg.BackupRetentionDays)
	if err := backups.Start(); err != nil {
		logging.Error("Failed to start backup scheduler", "error", err)
		os.Exit(1)
	}
	defer backups.Stop()

	checker := health.New(container, cfg.DataFile, scheduler.NextBackup)
	handler := handlers.New(container, fileStore)
	srv := server.New(cfg, handler, checker)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
