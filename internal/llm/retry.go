package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-trip-planner/internal/logging"

	"google.golang.org/api/googleapi"
)

// RetryPolicy is a bounded exponential backoff schedule.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy retries up to five times starting at one second with base 7.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:     5,
		InitialDelay: time.Second,
		Multiplier:   7,
		MaxDelay:     time.Minute,
	}
}

// Delay returns the wait before the given retry (1-based).
func (p RetryPolicy) Delay(retry int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 1; i < retry; i++ {
		d *= p.Multiplier
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

var retryableStatus = map[int]bool{
	429: true,
	500: true,
	503: true,
	504: true,
}

// IsRetryable reports whether err is worth another attempt. Provider status
// errors are retried only for rate limits and server errors; cancellation and
// empty replies are never retried; anything else is assumed transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNoContent) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus[statusErr.Code]
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus[apiErr.Code]
	}

	return true
}

// RetryingGenerator wraps a TextGenerator with exponential backoff.
// The last error is returned once the attempts are spent.
type RetryingGenerator struct {
	next   TextGenerator
	policy RetryPolicy
	logger *logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingGenerator wraps next with the given policy.
func NewRetryingGenerator(next TextGenerator, policy RetryPolicy, logger *logging.Logger) *RetryingGenerator {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &RetryingGenerator{
		next:   next,
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SupportsTool reports the tools of the wrapped generator.
func (r *RetryingGenerator) SupportsTool(t Tool) bool {
	return SupportsTool(r.next, t)
}

// GenerateContent calls the wrapped generator until it succeeds, fails with a
// non-retryable error, or the attempts run out.
func (r *RetryingGenerator) GenerateContent(ctx context.Context, prompt string, tools ...Tool) (ContentResponse, error) {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		attempts = attempt
		resp, err := r.next.GenerateContent(ctx, prompt, tools...)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == r.policy.Attempts {
			break
		}

		delay := r.policy.Delay(attempt)
		r.logger.Warn("generation failed, retrying",
			"attempt", attempt,
			"max_attempts", r.policy.Attempts,
			"delay", delay.String(),
			"error", err.Error(),
		)
		if err := r.sleep(ctx, delay); err != nil {
			return ContentResponse{}, err
		}
	}
	return ContentResponse{}, fmt.Errorf("generation failed after %d attempt(s): %w", attempts, lastErr)
}
