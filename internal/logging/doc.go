// Package logging provides structured logging for mhacwifi.
//
// This package wraps a global zap logger with convenience functions for the
// events the client and bridge produce: command exchanges, automatic session
// renewal, retries and bridge HTTP traffic.
//
// # Log Levels
//
//   - Debug: Every command exchange, raw undecodable responses
//   - Info: Session renewal, bridge requests and subscriber connections
//   - Warn: Failed attempts that will be retried
//   - Error: Failures that end an operation
//
// # Configuration
//
// Logging is silent unless MHACWIFI_LOG_LEVEL (or --log-level) is set:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr so command output on stdout stays parseable.
//
// # Secrets
//
// Passwords and session identifiers are never passed to the logger.
package logging
