// Package logging assembles the slog loggers used across moviematch.
//
// It owns the console/JSON handler choice, level parsing, and output routing
// (stderr plus an optional log file), and provides a no-op logger for tests
// and for components constructed without one.
package logging
