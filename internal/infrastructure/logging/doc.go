// Package logging provides structured logging for the scanner agent.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version, device_id) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	log := logging.New(cfg.Logging, version, cfg.Device.ID)
//	manager.SetLogger(log.With("component", "link"))
//	log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
//
// Each component receives a child logger tagged with its name, so a
// broker outage reads as component=link entries next to the matching
// diagnostic log lines.
//
// # Security
//
// Never log broker passwords or InfluxDB tokens.
package logging
