package utils

import (
	"context"
	"time"
)

// RetryOptions configures Retry. Zero values fall back to the defaults used
// by the bulk image upload path.
type RetryOptions struct {
	Attempts  int           // total attempts (default 3)
	BaseDelay time.Duration // first backoff, doubled each retry (default 1s)
	Timeout   time.Duration // per-attempt deadline (default 60s)
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return o
}

// Retry runs op under a per-attempt timeout, sleeping BaseDelay*2^(n-1)
// between attempts. Cancellation of ctx is checked before each attempt and
// interrupts the backoff sleep; the per-attempt timer is released as soon as
// the attempt settles. Returns the last error once attempts are exhausted.
func Retry[T any](ctx context.Context, opts RetryOptions, op func(context.Context) (T, error)) (T, error) {
	var zero T
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		v, err := op(attemptCtx)
		cancel()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == opts.Attempts {
			break
		}

		delay := opts.BaseDelay << (attempt - 1)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}
