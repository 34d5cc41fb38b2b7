// Package log provides logging for the extraction pipeline, built on top
// of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic trimming of oversized attribute values (page bodies, raw
//     table dumps) so a single debug line cannot flood the log
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Usage
//
//	// Create a logger writing to stderr
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("page fetched",
//	    "url", "https://www.fincen.gov/hifca-regional-map",
//	    "body", html, // Trimmed if it exceeds the value limit
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
