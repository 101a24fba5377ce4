package retry

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	errs "igunfollow/pkg/errors"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt     int
		expectedMin time.Duration
		expectedMax time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			delay := backoff.NextDelay(test.attempt)
			if delay < test.expectedMin || delay > test.expectedMax {
				t.Errorf("Expected delay between %v and %v, got %v",
					test.expectedMin, test.expectedMax, delay)
			}
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	// Test that jitter adds randomness
	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delay := backoff.NextDelay(2)
		delays[delay] = true
	}

	// With jitter, we should get different delays
	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestRangeBackoff(t *testing.T) {
	backoff := &RangeBackoff{
		Min:  170 * time.Second,
		Max:  240 * time.Second,
		Rand: rand.New(rand.NewSource(1)),
	}

	for i := 1; i <= 50; i++ {
		delay := backoff.NextDelay(i)
		if delay < backoff.Min || delay >= backoff.Max {
			t.Errorf("Attempt %d: delay %v outside [%v, %v)", i, delay, backoff.Min, backoff.Max)
		}
	}
}

func TestRangeBackoffDegenerateRange(t *testing.T) {
	backoff := &RangeBackoff{Min: 5 * time.Second, Max: 5 * time.Second}
	if delay := backoff.NextDelay(1); delay != 5*time.Second {
		t.Errorf("Expected fixed 5s delay, got %v", delay)
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	integrityError := &errs.Error{
		Type:    errs.ErrorTypeDataIntegrity,
		Message: "duplicate id in snapshot",
		Code:    errs.ExitInvalidSnapshot,
	}

	op := func() error {
		attempts++
		return integrityError
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err != integrityError {
		t.Errorf("Expected data integrity error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retry for integrity errors), got %d", attempts)
	}
}

func TestRetryWithRetryableTypedError(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 2 {
			return errs.New(errs.ErrorTypeTransient, "flaky reveal")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("Expected transient error to be retried to success, got: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel() // Cancel after second attempt
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when context cancelled")
	}
	if attempts > 3 {
		t.Errorf("Expected at most 3 attempts before cancellation, got %d", attempts)
	}
}

func TestRetryUsesInjectedSleep(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	var slept []time.Duration
	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 30 * time.Second},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
		Sleep: func(_ context.Context, delay time.Duration) error {
			slept = append(slept, delay)
			return nil
		},
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if len(slept) != 2 {
		t.Fatalf("Expected 2 waits through the injected sleep, got %d", len(slept))
	}
	for _, delay := range slept {
		if delay != 30*time.Second {
			t.Errorf("Expected the backoff delay to be passed through, got %v", delay)
		}
	}
}

func TestRetryInjectedSleepErrorStopsRetrying(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
		Sleep: func(context.Context, time.Duration) error {
			return context.Canceled
		},
	}

	if err := Do(op, cfg); err == nil {
		t.Error("Expected an error when the sleep is interrupted")
	}
	if attempts != 1 {
		t.Errorf("Expected no further attempts after an interrupted sleep, got %d", attempts)
	}
}
