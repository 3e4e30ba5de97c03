package helper

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy wraps calls to flaky network capabilities with exponential
// backoff. Only errors accepted by Retryable are retried; everything else
// propagates immediately.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	Retryable       func(error) bool
}

// NewRetryPolicy creates the default policy used around generation and
// vision-extraction calls: up to maxAttempts attempts, base interval 2s
// doubling, retrying rate-limit-class failures only.
func NewRetryPolicy(maxAttempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: 2 * time.Second,
		Retryable:       IsRateLimit,
	}
}

// IsRateLimit reports whether an error looks like a rate-limit failure.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

// Do runs op, retrying per the policy. The last error is returned once the
// attempt cap is reached.
func (p *RetryPolicy) Do(ctx context.Context, op func() error) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = p.InitialInterval
	expBackoff.Multiplier = 2
	expBackoff.RandomizationFactor = 0

	maxRetries := uint64(0)
	if p.MaxAttempts > 1 {
		maxRetries = uint64(p.MaxAttempts - 1)
	}

	wrapped := func() error {
		err := op()
		if err != nil && p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(expBackoff, maxRetries), ctx))
}
