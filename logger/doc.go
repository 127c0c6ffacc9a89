// Package logger provides structured logging for fetchkit using zerolog.
//
// It supports JSON and console output formats, level configuration, and
// component-scoped loggers with structured fields. Libraries in this module
// accept a *Logger explicitly; the package-level default exists only as a
// fallback for zero-configuration use.
//
// # Usage
//
//	log := logger.New(&logger.Config{Level: "debug", Format: "console"}, "fetchkit")
//	log.Info("request sent", logger.Fields(logger.FieldMethod, "GET"))
package logger
