// Package main is the entry point for the job-pilot API server.
//
// The main package stays minimal — its job is to:
// 1. Load configuration
// 2. Create the logger
// 3. Start the server
//
// All actual logic lives in imported packages (internal/server and below).
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AnujPatil110377/job-pilot/internal/config"
	"github.com/AnujPatil110377/job-pilot/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	// Debug level in development, info in production to reduce noise.
	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// === 3. DATA DIRECTORY ===
	// The SQLite file and the upload directory live under data/ by default;
	// create the parents so a fresh checkout starts cleanly.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(cfg.DBPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
