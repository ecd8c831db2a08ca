// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework.
//
// # Context Awareness
//
// The WithRayID helper extracts the RayID from a Fiber context and attaches it to the
// log entry. ForRun scopes a logger to a single sync run so that every chunk and device
// line of that run can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Sync started")
//
//	l := logger.ForRun(log, runID, "jamf")
//	l.Error("Device failed", zap.String("serial", serial), zap.Error(err))
package logger
