// Package logging assembles structured slog loggers and formatting helpers used
// across echoprep commands.
//
// It owns the console and JSON handlers, parses level and format settings, and
// exposes context-aware helpers so batch code can tag log lines with the run
// id and command name. Console output lists the highlighted fields of a record
// beneath a one-line header; JSON output keeps every attribute. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
