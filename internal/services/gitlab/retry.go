package gitlab

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	apperrors "tokenkeeper/internal/errors"
)

// Strategy defines retry behavior.
type Strategy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      bool
}

// HTTPStrategy returns a retry strategy suited to GitLab API calls.
func HTTPStrategy() Strategy {
	return Strategy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  1.5,
		Jitter:      true,
	}
}

// callKind separates calls that are safe to repeat from writes.
type callKind int

const (
	callRead callKind = iota
	callWrite
)

// isRetryable determines if an error should be retried. Writes are only
// retried when the server refused them outright (429); a 5xx or dropped
// connection may hide a write that was applied.
func isRetryable(err error, kind callKind) bool {
	if err == nil {
		return false
	}

	if apperrors.IsHTTPStatus(err, http.StatusTooManyRequests) {
		return true
	}
	if kind == callWrite {
		return false
	}

	if apperrors.IsNetwork(err) {
		return true
	}

	return apperrors.IsHTTPStatus(err, http.StatusBadGateway) ||
		apperrors.IsHTTPStatus(err, http.StatusServiceUnavailable) ||
		apperrors.IsHTTPStatus(err, http.StatusGatewayTimeout)
}

// calculateDelay computes the delay for the given attempt.
func (s Strategy) calculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(s.BaseDelay) * math.Pow(s.Multiplier, float64(attempt-1))

	if delay > float64(s.MaxDelay) {
		delay = float64(s.MaxDelay)
	}

	// Add jitter to avoid thundering herd
	if s.Jitter {
		jitter := delay * 0.1 * (2.0*float64(time.Now().UnixNano()%1000)/1000.0 - 1.0)
		delay += jitter
	}

	return time.Duration(delay)
}

// doWithRetry executes fn with retries according to the client's strategy.
func (c *Client) doWithRetry(ctx context.Context, kind callKind, operation string, fn func() error) error {
	logger := c.logger.With("operation", operation)

	maxAttempts := max(c.strategy.MaxAttempts, 1)
	var allErrors []error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.InfoContext(ctx, "Operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		allErrors = append(allErrors, err)

		if !isRetryable(err, kind) {
			break
		}

		if attempt == maxAttempts {
			break
		}

		delay := c.strategy.calculateDelay(attempt)
		logger.WarnContext(ctx, "Operation failed, retrying",
			"error", err,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	if len(allErrors) > 1 {
		logger.ErrorContext(ctx, "All retry attempts failed", "attempts", len(allErrors))
		return apperrors.NewMultiError(allErrors)
	}

	return allErrors[0]
}
