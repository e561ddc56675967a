// Package retry runs operations under a bounded retry policy that only
// retries failures classified as transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// DefaultMaxAttempts is the total number of attempts when a policy leaves
// MaxAttempts unset.
const DefaultMaxAttempts = 3

// ErrExhausted is returned when every attempt failed with a transient error.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// BaseDelay is the first backoff interval. Zero retries immediately.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff. Zero means uncapped.
	MaxDelay time.Duration
	// IsTransient decides whether a failure is worth another attempt.
	// A nil classifier treats every failure as permanent.
	IsTransient func(error) bool
	Logger      *slog.Logger
}

// Do executes op until it succeeds, fails with a non-transient error, or runs
// out of attempts. On exhaustion the returned error matches both ErrExhausted
// and the last failure.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := p.maxAttempts()
	attempts := 0
	var last error

	err := goretry.Do(ctx, p.backoff(maxAttempts), func(ctx context.Context) error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err
		if !p.transient(err) {
			return err
		}
		if attempts < maxAttempts {
			p.logger().WarnContext(ctx, "transient failure, retrying",
				"attempt", attempts,
				"max_attempts", maxAttempts,
				"error", err,
			)
		}
		return goretry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	if attempts >= maxAttempts && last != nil && p.transient(last) && errors.Is(err, last) {
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, last)
	}
	return err
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p Policy) transient(err error) bool {
	return p.IsTransient != nil && p.IsTransient(err)
}

func (p Policy) backoff(maxAttempts int) goretry.Backoff {
	var b goretry.Backoff
	if p.BaseDelay > 0 {
		b = goretry.NewExponential(p.BaseDelay)
		if p.MaxDelay > 0 {
			b = goretry.WithCappedDuration(p.MaxDelay, b)
		}
	} else {
		b = goretry.BackoffFunc(func() (time.Duration, bool) {
			return 0, false
		})
	}
	return goretry.WithMaxRetries(uint64(maxAttempts-1), b)
}

func (p Policy) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}
