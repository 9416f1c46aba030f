// Package logging configures the slog handlers used across docpress: a
// human-oriented console handler for interactive use and a JSON handler for
// log files and machine consumers.
package logging
