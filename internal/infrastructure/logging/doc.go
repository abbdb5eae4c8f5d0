// Package logging provides structured logging for campus-core.
//
// It wraps log/slog so every component logs with the same format and
// default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "campus-core", "1.0.0")
//	logger.Info("identity registered", "id", id)
//
// # Security
//
// Never log passwords, password hashes or bearer tokens. Identity ids
// and rejection reasons are safe to log.
package logging
