package workflow

import (
	"context"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// RetryPolicy controls how activity failures are retried. The same
// policy applies uniformly to every activity in a workflow.
type RetryPolicy struct {
	InitialInterval    time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
	BackoffCoefficient float64       `mapstructure:"backoff_coefficient" yaml:"backoff_coefficient"`
	MaxInterval        time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
	MaxAttempts        int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// DefaultRetryPolicy returns the standard activity retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaxInterval:        30 * time.Second,
		MaxAttempts:        3,
	}
}

// NextInterval returns the backoff delay before the given attempt.
// Attempts are 1-based; the delay before attempt 2 is InitialInterval.
func (p RetryPolicy) NextInterval(attempt int) time.Duration {
	if attempt <= 1 {
		return p.InitialInterval
	}

	interval := float64(p.InitialInterval)
	for i := 1; i < attempt; i++ {
		interval *= p.BackoffCoefficient
		if time.Duration(interval) >= p.MaxInterval {
			return p.MaxInterval
		}
	}
	return time.Duration(interval)
}

// Execute runs fn under the policy, sleeping the backoff interval
// between attempts. Non-retryable errors abort immediately; the last
// error is returned once attempts are exhausted.
func (p RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !types.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.NextInterval(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
