// Package retry provides backoff and retry logic for handling transient
// failures in browser-driven operations.
//
// Features:
//   - Exponential, constant and randomized-range backoff strategies
//   - Jitter to avoid machine-regular timing
//   - Context support for cancellation
//   - Configurable retry predicates wired to the error taxonomy
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return session.OpenList("following")
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// Transient and rate-limit errors retry; data-integrity and non-recoverable
// errors surface immediately.
package retry
