package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func fastRetrier() *Retrier {
	return &Retrier{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastRetrier().Do(context.Background(), "op", nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	// Four 503s then success must stay within the five-attempt budget.
	calls := 0
	err := fastRetrier().Do(context.Background(), "op", nil, func(ctx context.Context) error {
		calls++
		if calls < 5 {
			return errors.New("503 service temporarily unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on 5th attempt, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 calls, got %d", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	err := fastRetrier().Do(context.Background(), "op", nil, func(ctx context.Context) error {
		calls++
		return errors.New("503 service temporarily unavailable")
	})
	if calls != 5 {
		t.Errorf("expected 5 calls, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 5 {
		t.Errorf("expected 5 attempts recorded, got %d", exhausted.Attempts)
	}
	if exhausted.Err == nil {
		t.Error("expected last underlying error to be carried")
	}
}

func TestDoTerminalNoRetry(t *testing.T) {
	calls := 0
	wantErr := errors.New("401 unauthorized")
	err := fastRetrier().Do(context.Background(), "op", nil, func(ctx context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected terminal error to propagate, got %v", err)
	}
	if calls != 1 {
		t.Errorf("terminal error must not be retried, got %d calls", calls)
	}
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r := &Retrier{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Do(ctx, "op", nil, func(ctx context.Context) error {
			calls++
			return errors.New("timeout")
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoValueReturnsResult(t *testing.T) {
	v, err := DoValue(context.Background(), fastRetrier(), "op", nil, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("DoValue: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestDoConcurrentInvocations(t *testing.T) {
	// The Retrier holds no per-call state, so concurrent use must be safe.
	r := fastRetrier()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			calls := 0
			err := r.Do(context.Background(), fmt.Sprintf("op-%d", n), nil, func(ctx context.Context) error {
				calls++
				if calls < 3 {
					return errors.New("connection reset")
				}
				return nil
			})
			if err != nil {
				t.Errorf("op-%d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestDefaultClassifier(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{errors.New("503 Service Temporarily Unavailable"), Transient},
		{errors.New("429 too many requests"), Transient},
		{errors.New("rate_limit_error: slow down"), Transient},
		{errors.New("read tcp: connection reset by peer"), Transient},
		{errors.New("dial: connection refused"), Transient},
		{context.DeadlineExceeded, Transient},
		{errors.New("401 unauthorized"), Terminal},
		{errors.New("400 invalid_request"), Terminal},
		{errors.New("model not found"), Terminal},
		{context.Canceled, Terminal},
		{errors.New("some parsing bug"), Terminal},
	}
	for _, tt := range tests {
		if got := DefaultClassifier(tt.err); got != tt.want {
			t.Errorf("DefaultClassifier(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
