package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimited wraps a Provider with a token bucket capped at rpm requests
// per minute. Concurrent pipeline stages share one completion backend, so
// the bucket keeps judge batches from starving intent extraction.
type RateLimited struct {
	provider Provider
	rpm      int

	mu       sync.Mutex
	tokens   int
	lastFill time.Time
}

// NewRateLimited wraps provider with an rpm requests-per-minute budget.
func NewRateLimited(provider Provider, rpm int) *RateLimited {
	return &RateLimited{
		provider: provider,
		rpm:      rpm,
		tokens:   rpm,
		lastFill: time.Now(),
	}
}

func (r *RateLimited) Name() string { return r.provider.Name() }

func (r *RateLimited) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

func (r *RateLimited) acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		refill := int(now.Sub(r.lastFill).Seconds() * float64(r.rpm) / 60.0)
		if refill > 0 {
			r.tokens = min(r.tokens+refill, r.rpm)
			r.lastFill = now
		}
		if r.tokens > 0 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
