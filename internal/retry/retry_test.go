package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy(), nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	policy := Policy{MaxAttempts: 3, Base: 2.0, Sleep: func(time.Duration) {}}
	calls := 0
	wantErr := errors.New("connection reset")
	err := Do(context.Background(), policy, func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return wantErr
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDoDoesNotRetryNonTransientErrors(t *testing.T) {
	policy := Policy{MaxAttempts: 5, Base: 2.0, Sleep: func(time.Duration) {}}
	calls := 0
	parseErr := errors.New("malformed document")
	err := Do(context.Background(), policy, func(error) bool { return false }, func(ctx context.Context) error {
		calls++
		return parseErr
	})
	if !errors.Is(err, parseErr) {
		t.Fatalf("expected parseErr, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt for a non-transient error, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	policy := Policy{MaxAttempts: 3, Base: 2.0, Sleep: func(time.Duration) {}}
	calls := 0
	wantErr := errors.New("still down")
	err := Do(context.Background(), policy, func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wantErr after exhausting attempts, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := Policy{MaxAttempts: 3, Base: 2.0, Sleep: func(time.Duration) {}}
	calls := 0
	err := Do(ctx, policy, func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		return errors.New("down")
	})
	if err == nil {
		t.Fatalf("expected an error once context is cancelled")
	}
	if calls != 1 {
		t.Fatalf("expected the loop to stop after the first attempt once cancelled, got %d calls", calls)
	}
}
