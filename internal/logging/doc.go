// Package logging provides structured logging for integra-bridge.
//
// This package wraps a zap logger with package-level helpers so every
// component logs through one configured instance.
//
// # Log Levels
//
//   - Debug: frame hex dumps, command state transitions, socket events
//   - Info: startup, subscriptions, first controller contact
//   - Warn: failed attempts that will be retried, dropped clients
//   - Error: commands that failed after retry, server failures
//
// # Configuration
//
// Initialize logging once at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given the INTEGRA_LOG_LEVEL environment variable is used.
// If that is empty too, logging is silent, which keeps CLI output clean.
//
// # Frame Logging
//
//	logging.LogFrame("Sending frame", frame)
//	// DEBUG  Sending frame  {"length": 7, "hex": "FE FE 7E D8 60 FE 0D"}
package logging
