package tushare

import (
	"context"

	"github.com/aristath/forecast/internal/reliability"
)

// RetryingClient wraps a Caller with the bounded fixed-delay retry policy.
type RetryingClient struct {
	inner   Caller
	retrier *reliability.Retrier
}

// NewRetryingClient wraps inner with retrier.
func NewRetryingClient(inner Caller, retrier *reliability.Retrier) *RetryingClient {
	return &RetryingClient{inner: inner, retrier: retrier}
}

// Call retries every failure. Once the budget is spent the error matches
// reliability.ErrUpstreamExhausted and unwraps to the last cause.
func (c *RetryingClient) Call(ctx context.Context, apiName string, params map[string]string) (*Response, error) {
	return reliability.Do(ctx, c.retrier, "tushare."+apiName, func(ctx context.Context) (*Response, error) {
		return c.inner.Call(ctx, apiName, params)
	})
}
