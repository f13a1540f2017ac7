// Package logging constructs slog loggers for the daemon and CLI and
// provides the attribute helpers shared across components.
package logging
