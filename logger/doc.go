// Package logger provides structured logging for procexec using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers. Loggers default to stderr so they never mix with
// child output relayed on stdout.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("process")
//	log.Debug("spawned", logger.Fields(logger.FieldPID, pid))
package logger
