// Package logging provides JSON-lines structured logging for the
// launcher engine and its CLI front end.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
	// FormatText emits slog's key=value text form, for terminals.
	FormatText Format = "text"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Format is the output encoding (default: FormatJSON)
	Format Format

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Debug:  false,
	}
}

// ParseLevel maps a config string to a slog level. Unknown strings
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat maps a config string to a Format. Unknown strings fall
// back to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// New creates a structured logger. JSON output is one object per line:
//
//	{"ts":"2024-01-15T10:30:00Z","level":"INFO","msg":"engine started","pid":12345}
//
// Log levels:
//   - debug: per-query traces, provider timeouts (enabled via FLARE_DEBUG=1)
//   - info: startup, shutdown, config load
//   - warn: non-fatal issues (corrupt weights, clamped config values)
//   - error: failures requiring attention
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Rename "time" to "ts" to keep log lines compact.
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == FormatText {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}
	return slog.New(handler)
}

// NewFromEnv creates a logger configured from environment variables.
// FLARE_DEBUG=1 enables debug logging, FLARE_LOG_FORMAT selects the
// encoding.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	if os.Getenv("FLARE_DEBUG") == "1" {
		cfg.Debug = true
	}
	if v := os.Getenv("FLARE_LOG_FORMAT"); v != "" {
		cfg.Format = ParseFormat(v)
	}
	return New(cfg)
}

// Discard returns a logger that drops everything. Tests and the TUI
// (which owns the terminal) use it to keep stderr quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// StartupInfo holds information to log at engine startup.
type StartupInfo struct {
	Version       string
	ConfigPath    string
	DatabasePath  string
	SchemaVersion int
	FastProviders int
	SlowProviders int
	PID           int
}

// LogStartup logs engine startup information.
func LogStartup(logger *slog.Logger, info StartupInfo) {
	logger.Info("engine started",
		"version", info.Version,
		"config_path", info.ConfigPath,
		"database_path", info.DatabasePath,
		"schema_version", info.SchemaVersion,
		"fast_providers", info.FastProviders,
		"slow_providers", info.SlowProviders,
		"pid", info.PID,
	)
}

// LogShutdown logs engine shutdown.
func LogShutdown(logger *slog.Logger, reason string) {
	logger.Info("engine shutting down", "reason", reason)
}

// LogProviderTimeout logs a provider that missed its deadline. The
// round continues without its results, so this stays at debug.
func LogProviderTimeout(logger *slog.Logger, name string, timeoutMs int64) {
	logger.Debug("provider timeout", "provider", name, "timeout_ms", timeoutMs)
}

// LogProviderFailure logs a provider that returned an error. Contained
// like a timeout, so debug as well.
func LogProviderFailure(logger *slog.Logger, name string, err error) {
	logger.Debug("provider failure", "provider", name, "error", err.Error())
}

// LogStorageError logs storage failures.
func LogStorageError(logger *slog.Logger, operation string, err error) {
	logger.Error("storage error", "operation", operation, "error", err.Error())
}
