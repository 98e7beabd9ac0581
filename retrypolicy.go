package workerpool

import (
	"context"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
)

const (
	defaultAttempts     = 3
	defaultInitialRetry = 200 * time.Millisecond
	defaultMaxRetry     = 5 * time.Second
)

// RetryPolicy describes how many times and how often an operation should
// be retried. Zero values are treated as "use defaults".
//
// The pool itself never retries a job. Submitters that want retries wrap
// their work with Retry.
type RetryPolicy struct {
	// Attempts is the maximum number of tries.
	Attempts int

	// Initial is the first backoff duration.
	Initial time.Duration

	// Max is the cap for backoff duration.
	Max time.Duration
}

// GetDefaultRP returns a pointer to the default retry policy.
func GetDefaultRP() *RetryPolicy {
	rp := RetryPolicy{
		Attempts: defaultAttempts,
		Initial:  defaultInitialRetry,
		Max:      defaultMaxRetry,
	}
	return &rp
}

func (rp RetryPolicy) withDefaults() RetryPolicy {
	if rp.Attempts <= 0 {
		rp.Attempts = defaultAttempts
	}
	if rp.Initial <= 0 {
		rp.Initial = defaultInitialRetry
	}
	if rp.Max <= 0 {
		rp.Max = defaultMaxRetry
	}
	return rp
}

// Retry calls fn until it succeeds, the attempts are used up or ctx is
// done, sleeping with jittered exponential backoff between attempts.
// It returns the last error from fn, or the context error.
func Retry(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) error {
	pol := policy.withDefaults()
	logger := lg.FromContext(ctx)
	bo := boff.New(pol.Initial, pol.Max, time.Now().UnixNano())

	var err error
	for attempt := 1; attempt <= pol.Attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == pol.Attempts {
			break
		}
		delay := bo.Next()
		logger.Warn("attempt failed; backing off",
			lg.Int("attempt", attempt),
			lg.String("sleep", delay.String()),
			lg.Any("error", err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return err
}

// WithRetry wraps fn so that it is retried under policy when the pool
// runs it.
func WithRetry(policy RetryPolicy, fn JobFunc) JobFunc {
	return func(ctx context.Context) error {
		return Retry(ctx, policy, func(ctx context.Context) error { return fn(ctx) })
	}
}
