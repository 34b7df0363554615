// Package logging assembles structured slog loggers and formatting helpers used
// across cropflow commands.
//
// It owns the configurable console/JSON handlers, tees every record into the
// run log file, and stamps each line with the invocation's run id so output
// from one detection pass or analysis run can be traced end to end. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
