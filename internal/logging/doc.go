// Package logging provides structured logging for modbusdash.
//
// This package wraps zap logger with convenience functions for the logging
// patterns used by the gateway client and the dashboard core.
//
// # Silent by Default
//
// The CLI and TUI print their own user-facing output, so logging is disabled
// unless a level is requested with --log-level or MODBUSDASH_LOG_LEVEL.
//
// # Log Levels
//
//   - Debug: every gateway round trip, applied refreshes
//   - Info: accepted writes, connection changes
//   - Warn: failed requests and refreshes (never fatal to the dashboard)
//   - Error: startup failures
//
// # Output
//
// Console encoding with ISO8601 timestamps. Terminal destinations get colored
// levels; file destinations do not:
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    Level:      "debug",
//	    OutputPath: "/home/me/.config/modbusdash/modbusdash.log",
//	}); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// The TUI always logs to a file because stdout belongs to bubbletea.
//
// # Domain Helpers
//
//	logging.LogRequest(requestID, "GET", "/api/read_coils", 200, elapsed, nil)
//	logging.LogRefresh("coils", 16, nil)
//	logging.LogWrite("registers", 4, 1200, err)
package logging
