package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryClient wraps an Inference with exponential backoff. Connection
// failures and retryable server statuses are retried; timeouts are not,
// so the hard timeout surfaces exactly once.
type RetryClient struct {
	inner      Inference
	maxRetries int
	baseDelay  time.Duration
}

func WithRetry(inner Inference, maxRetries int) *RetryClient {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RetryClient{inner: inner, maxRetries: maxRetries, baseDelay: 500 * time.Millisecond}
}

func (r *RetryClient) ModelName() string { return r.inner.ModelName() }

func (r *RetryClient) Models(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		models, err := r.inner.Models(ctx)
		if err == nil {
			return models, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == r.maxRetries {
			break
		}
		if err := r.backoff(ctx, attempt); err != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (r *RetryClient) Complete(ctx context.Context, msgs []Message, p Params) (*Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		out, err := r.inner.Complete(ctx, msgs, p)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == r.maxRetries {
			return nil, lastErr
		}
		if err := r.backoff(ctx, attempt); err != nil {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}

func isRetryable(err error) bool {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return true
	}
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		switch protoErr.Status {
		case 429, 500, 502, 503:
			return true
		}
	}
	return false
}

func (r *RetryClient) backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(r.baseDelay) * math.Pow(2, float64(attempt)))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
