// Package logging assembles structured slog loggers and formatting helpers
// used across streampanel.
//
// It owns the console/JSON handlers, centralizes level plumbing, and exposes
// context-aware helpers so operation code can automatically tag log lines
// with operation names, server names, and correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Diagnostics always go to stderr: stdout is reserved for the single JSON
// result document each command emits.
package logging
