package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when a named building does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork marks failures to reach Redis or MongoDB.
	ErrNetwork = errors.New("network error")

	// ErrCacheMiss is returned by GetJSON and GetBytes when no usable entry
	// exists.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError marks a backend failure that is worth another attempt,
// such as a PING that timed out while the server was still starting.
type RetryableError struct{ Err error }

// Retryable wraps err so that [Backoff.Retry] tries again. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or anything it wraps, is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is a retry schedule whose delay doubles after each failed attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is used when connecting to Redis and MongoDB: three
// attempts spread over about three seconds.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// Retry calls fn until it succeeds, returns an error not marked Retryable,
// or the attempts run out. The last error is returned, or ctx.Err() when
// ctx ends while waiting.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}

// RetryWithBackoff is DefaultBackoff.Retry.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Retry(ctx, fn)
}
