// Package reliability provides failure-handling primitives for upstream calls.
package reliability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxAttempts is the total number of attempts, including the first.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the fixed wait between attempts. No jitter, no backoff growth.
	DefaultRetryDelay = 1000 * time.Millisecond
)

// ErrUpstreamExhausted is matched by errors.Is for every ExhaustedError.
var ErrUpstreamExhausted = errors.New("upstream exhausted")

// ExhaustedError is returned when every attempt failed. It unwraps to the last cause.
type ExhaustedError struct {
	Operation string
	Attempts  int
	Last      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Last)
}

// Unwrap exposes both the sentinel and the last underlying cause.
func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrUpstreamExhausted, e.Last}
}

// RetryEvent describes a failed attempt that will be retried.
type RetryEvent struct {
	Operation string
	Attempt   int // the attempt that failed, 1-based
	Err       error
}

// Retrier runs an operation with a bounded number of attempts and a fixed delay.
// Every error is treated as retryable.
type Retrier struct {
	maxAttempts int
	delay       time.Duration
	onRetry     func(RetryEvent)
	log         zerolog.Logger
}

// RetrierOption configures a Retrier
type RetrierOption func(*Retrier)

// WithMaxAttempts overrides the attempt budget (minimum 1).
func WithMaxAttempts(n int) RetrierOption {
	return func(r *Retrier) {
		if n < 1 {
			n = 1
		}
		r.maxAttempts = n
	}
}

// WithDelay overrides the inter-attempt delay.
func WithDelay(d time.Duration) RetrierOption {
	return func(r *Retrier) {
		if d < 0 {
			d = 0
		}
		r.delay = d
	}
}

// WithOnRetry registers a hook invoked before each retry wait.
func WithOnRetry(fn func(RetryEvent)) RetrierOption {
	return func(r *Retrier) {
		r.onRetry = fn
	}
}

// NewRetrier creates a retrier with 3 attempts and a 1s fixed delay unless overridden.
func NewRetrier(log zerolog.Logger, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultRetryDelay,
		log:         log.With().Str("component", "retrier").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the configured attempt budget.
func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// Do runs fn until it succeeds or the attempt budget is spent. A cancelled context stops
// the loop during the wait and is returned wrapped with the last failure.
func Do[T any](ctx context.Context, r *Retrier, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				r.log.Info().
					Str("operation", operation).
					Int("attempt", attempt).
					Msg("Upstream call succeeded after retry")
			}
			return result, nil
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		r.log.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Int("max_attempts", r.maxAttempts).
			Msg("Upstream call failed, retrying")
		if r.onRetry != nil {
			r.onRetry(RetryEvent{Operation: operation, Attempt: attempt, Err: err})
		}

		if err := sleep(ctx, r.delay); err != nil {
			return zero, fmt.Errorf("%s retry aborted after attempt %d: %w (last error: %v)", operation, attempt, err, lastErr)
		}
	}

	r.log.Error().
		Err(lastErr).
		Str("operation", operation).
		Int("attempts", r.maxAttempts).
		Msg("Upstream call failed after all retries")

	return zero, &ExhaustedError{Operation: operation, Attempts: r.maxAttempts, Last: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
