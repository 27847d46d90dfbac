package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	defaultListenAddr = ":8080"
	defaultDBPath     = "atlas.db"
	defaultLauncher   = "mpirun"
	defaultWorkerBin  = "atlas-worker"

	envListenAddr = "ATLAS_LISTEN_ADDR"
	envDBPath     = "ATLAS_DB_PATH"
	envLogLevel   = "ATLAS_LOG_LEVEL"
	envLauncher   = "ATLAS_LAUNCHER"
	envWorkerBin  = "ATLAS_WORKER_BIN"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level
	Launcher   string // cluster launcher program for distributed runs
	WorkerBin  string // worker binary handed to the launcher
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr: defaultListenAddr,
		DBPath:     defaultDBPath,
		LogLevel:   slog.LevelInfo,
		Launcher:   defaultLauncher,
		WorkerBin:  defaultWorkerBin,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envLauncher); v != "" {
		cfg.Launcher = v
	}
	if v := os.Getenv(envWorkerBin); v != "" {
		cfg.WorkerBin = v
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
