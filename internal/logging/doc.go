// Package logging provides structured logging for stagehand workspaces.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support. Coordination operations are infrequent but
// span multiple processes and machines, so the logs are designed for
// post-hoc analysis: structured, filterable, and safe to append from
// concurrent processes.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (spec ID, session ID, scene ID)
//   - Log rotation with configurable size limits
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger for a workspace log directory:
//
//	logger, err := logging.New("/path/to/.stagehand/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("lock acquired", "spec_id", "auth-api")
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	specLogger := logger.WithSpec("auth-api")
//	specLogger.Info("stale lock removed")
//
// All logs from specLogger include spec_id.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output.
package logging
