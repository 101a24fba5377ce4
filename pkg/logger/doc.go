// Package logger provides structured logging for the unfollow tool.
//
// It wraps zerolog behind a small interface so components can log with
// fields without depending on a concrete logger, and so tests can swap in
// a capturing implementation.
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	err := logger.Initialize(cfg)
//
//	logger.WithField("source", "following").Info("collection started")
package logger
