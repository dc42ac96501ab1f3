// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Components receive a *Logger explicitly at construction time; there is
// no package-level logger.
//
// Example:
//
//	logger := logging.NewDefault().Named("cache")
//	logger.Info("entry evicted", zap.String("key", key))
package logging
