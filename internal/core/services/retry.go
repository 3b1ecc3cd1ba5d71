package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// retryPolicy retries transient provider failures with exponential
// backoff. Only rate limits and provider unavailability are retried;
// quota exhaustion and configuration errors surface immediately.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
		sleep:       sleepCtx,
	}
}

// do runs fn up to maxAttempts times. Between attempts it waits
// baseDelay doubled per attempt, or the provider's retry-after hint
// when one was given and is longer.
func (p retryPolicy) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.maxAttempts {
			break
		}

		delay := p.baseDelay << (attempt - 1)
		var rle *domain.RateLimitError
		if errors.As(lastErr, &rle) && rle.RetryAfter > delay {
			delay = rle.RetryAfter
		}

		logger.Warn("%s failed (attempt %d/%d), retrying in %s: %v",
			op, attempt, p.maxAttempts, delay, lastErr)

		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// retryable reports whether the error is transient.
func retryable(err error) bool {
	if errors.Is(err, domain.ErrQuotaExceeded) {
		return false
	}
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrProviderUnavailable)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
