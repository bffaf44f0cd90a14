// Package logging assembles structured slog loggers and formatting helpers
// used across reshelf services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with operation IDs, source paths, and
// correlation IDs. The package also provides the in-memory stream hub behind
// the daemon's log endpoint, a retention sweep for aged log files, and a no-op
// logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
