// Package logging builds the slog loggers every gamewiki component writes to.
//
// Two handlers are available: a console format with a one-line header plus
// indented detail lines, and JSON. WithContext tags a logger with the task
// identifiers the workflow stores on the context, and ForStage applies the
// per-stage level overrides from logging.stage_overrides.
package logging
