// Package resilience wraps external calls with retry, exponential backoff,
// and error classification. Every embedding, completion, vector search, and
// web search call in the pipeline goes through a Retrier.
package resilience

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Class labels an error as retryable or not.
type Class int

const (
	// Transient errors (timeouts, 5xx, connection resets) are retried.
	Transient Class = iota
	// Terminal errors (bad requests, auth failures) propagate immediately.
	Terminal
)

// Classifier decides whether an error is worth retrying.
type Classifier func(error) Class

// ExhaustedError is returned when a transient error survives all attempts.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: retries exhausted after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retrier executes operations with exponential backoff. It holds only
// configuration, so a single Retrier may be shared by concurrent callers.
type Retrier struct {
	MaxAttempts    int           // default 5
	BaseDelay      time.Duration // doubles each attempt, default 2s
	MaxDelay       time.Duration // backoff cap, default 30s
	AttemptTimeout time.Duration // per-attempt deadline, 0 = none
}

// Default returns a Retrier with the standard pipeline settings.
func Default() *Retrier {
	return &Retrier{
		MaxAttempts:    5,
		BaseDelay:      2 * time.Second,
		MaxDelay:       30 * time.Second,
		AttemptTimeout: 60 * time.Second,
	}
}

// Do runs op, retrying transient failures per the classifier. Terminal
// errors and context cancellation propagate immediately; exhausting the
// attempt budget returns an *ExhaustedError wrapping the last error.
func (r *Retrier) Do(ctx context.Context, name string, classify Classifier, op func(context.Context) error) error {
	if classify == nil {
		classify = DefaultClassifier
	}
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := r.BaseDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if r.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.AttemptTimeout)
		}
		lastErr = op(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return nil
		}

		// The parent being done outranks whatever the attempt returned.
		if err := ctx.Err(); err != nil {
			return err
		}

		if classify(lastErr) == Terminal {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(jitter(delay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if r.MaxDelay > 0 && delay > r.MaxDelay {
			delay = r.MaxDelay
		}
	}

	return &ExhaustedError{Op: name, Attempts: attempts, Err: lastErr}
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, r *Retrier, name string, classify Classifier, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, name, classify, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// jitter spreads a delay across [d/2, 3d/2) so concurrent retries against
// the same backend do not synchronize.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := int64(d) / 2
	return time.Duration(half + rand.Int63n(int64(d)))
}
