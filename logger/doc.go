// Package logger provides structured logging for crashstream using zerolog.
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
//	log := logger.New(&cfg.Logging, "crashstream").WithComponent("ingest")
//	log.Info("transfer acknowledged", logger.Fields("records_sent", 997))
package logger
