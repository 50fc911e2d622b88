// Package logging provides structured logging for the Gray Logic Hub.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the hub.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error, critical)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error, critical
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Security
//
// Never log passwords, session IDs or broker credentials. Log usernames or
// scopes instead.
package logging
