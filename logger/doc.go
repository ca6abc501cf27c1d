// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("mfa").WithComponent("storage")
//	log.Info("object written", logger.Fields("path", p, "size", n))
package logger
