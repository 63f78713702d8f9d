// Arclens - watches the game screen for the inventory view and shows
// item recommendations for the tooltip under the cursor.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arclens/arclens/internal/capture"
	"github.com/arclens/arclens/internal/config"
	"github.com/arclens/arclens/internal/ocr"
	"github.com/arclens/arclens/internal/overlay"
	"github.com/arclens/arclens/internal/profiles"
	"github.com/arclens/arclens/internal/scanner"
	"github.com/arclens/arclens/internal/stations"
	"github.com/arclens/arclens/internal/store"
)

func main() {
	cfg := config.Load()

	// Setup structured logging
	level := slog.LevelInfo
	if cfg.DebugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	capturer := capture.New()
	defer capturer.Close()

	// Pick calibrated geometry for the current resolution when the
	// config still carries first-run placeholders.
	if set, err := profiles.Load(cfg.ProfilesPath); err != nil {
		slog.Warn("resolution profiles unavailable", "error", err)
	} else if profiles.Uncalibrated(cfg) {
		if size, err := capturer.ScreenSize(); err != nil {
			slog.Warn("screen size query failed", "error", err)
		} else if !profiles.Apply(cfg, set, size.X, size.Y) {
			slog.Warn("no profile for this resolution, calibrate the capture regions",
				"resolution", profiles.Key(size.X, size.Y))
		}
	}

	db, err := store.Open(cfg.DatabasePath, cfg.ItemsCSVPath)
	if err != nil {
		slog.Error("failed to open item database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if cfg.ItemsCSVPath != "" {
		if n, err := db.LoadCSV(cfg.ItemsCSVPath); err != nil {
			slog.Warn("item csv load failed", "path", cfg.ItemsCSVPath, "error", err)
		} else {
			slog.Info("item csv loaded", "items", n)
		}
	}
	if n, err := db.Count(); err == nil {
		slog.Info("item database ready", "items", n)
	}

	engine, err := ocr.NewTesseract(cfg.TessdataPath)
	if err != nil {
		slog.Error("failed to start ocr engine", "error", err)
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	levels := stations.Load(cfg.StationsPath)
	slog.Info("station levels", "levels", levels.String())
	resolve := func(item store.Item) store.Item {
		return stations.Resolve(item, levels)
	}

	scan := scanner.New(cfg, capturer, engine, db, resolve)
	srv := overlay.New(scan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reload recommendations when the CSV changes on disk.
	if cfg.ItemsCSVPath != "" {
		go func() {
			if err := db.Watch(ctx); err != nil {
				slog.Warn("item csv watcher stopped", "error", err)
			}
		}()
	}

	scan.Start()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("overlay server starting", "http", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	scan.Stop()
	slog.Info("shutdown complete")
}
