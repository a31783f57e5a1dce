// Package logging assembles structured slog loggers and formatting helpers used
// across devbox.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so phase code can automatically
// tag log lines with run IDs, phases, and step names. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
