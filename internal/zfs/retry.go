package zfs

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig defines the parameters for the exponential backoff and retry mechanism.
// It allows fine-tuning of how aggressive the system should be when handling transient errors.
type RetryConfig struct {
	// MaxRetries is the maximum number of additional attempts after the initial failure.
	// For example, if MaxRetries is 3, the operation runs at most 4 times (1 initial + 3 retries).
	MaxRetries int

	// BaseDelay is the initial wait time before the first retry.
	// This duration increases exponentially with each attempt (BaseDelay * 2^attempt).
	BaseDelay time.Duration

	// MaxDelay is the hard limit for the sleep duration between retries.
	// Even if the exponential calculation exceeds this value, the wait time will be capped here.
	MaxDelay time.Duration

	// OperationTimeout is the total time limit for the entire operation, including all retries.
	// If this timeout is reached, the context will be cancelled regardless of retry attempts left.
	OperationTimeout time.Duration
}

// transientMarkers are the zfs(8) failure modes worth retrying: another
// process holding the dataset, or a pool that is temporarily wedged.
// Anything else (bad name, permission denied, missing dataset) is a
// permanent error and retrying would only repeat it.
var transientMarkers = []string{
	"dataset is busy",
	"device is busy",
	"pool I/O is currently suspended",
}

func isRetryable(err error) bool {
	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ExecuteAction wraps a function with retry logic, including exponential backoff,
// jitter, and context timeouts.
//
// opName is used for logging and debugging purposes.
// operation is the function to execute; it must accept a context to support cancellation.
func ExecuteAction(ctx context.Context, cfg RetryConfig, opName string, operation func(ctx context.Context) error) error {
	// Enforce the global operation timeout defined in the config.
	// This ensures the retry loop doesn't run indefinitely.
	if cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.OperationTimeout)
		defer cancel()
	}

	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		// 1. Pre-check: Stop immediately if the context is cancelled or timed out.
		if ctx.Err() != nil {
			return fmt.Errorf("%s timed out before attempt %d: %w", opName, attempt+1, ctx.Err())
		}

		// 2. Execute the operation
		lastErr = operation(ctx)
		if lastErr == nil {
			return nil // Success
		}

		// 3. Decision: Should we retry?
		if !isRetryable(lastErr) {
			return lastErr // Permanent error, fail fast.
		}

		// If this was the last attempt, don't wait/sleep, just return the error.
		if attempt == cfg.MaxRetries {
			break
		}

		slog.Warn("Transient error detected, scheduling retry",
			"operation", opName,
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"error", lastErr)

		// 4. Calculate Backoff (Exponential + Jitter)
		// Formula: BaseDelay * 2^attempt
		backoff := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))

		// Add Jitter: Randomize the wait time to prevent "thundering herd" problems.
		// We add a random duration between 0 and 50% of the calculated backoff.
		sleepDuration := time.Duration(backoff)
		if half := int64(backoff) / 2; half > 0 {
			sleepDuration += time.Duration(rand.Int63n(half))
		}

		// Cap the sleep duration at MaxDelay
		sleepDuration = min(sleepDuration, cfg.MaxDelay)

		// 5. Wait with Context awareness
		select {
		case <-time.After(sleepDuration):
			continue // Proceed to next attempt
		case <-ctx.Done():
			return fmt.Errorf("%s context cancelled during backoff: %w", opName, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d retries: %w", opName, cfg.MaxRetries, lastErr)
}
