package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), RetryOptions{Attempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestRetryExhaustsAndReturnsLastError(t *testing.T) {
	calls := 0
	lastErr := errors.New("boom 3")
	_, err := Retry(context.Background(), RetryOptions{Attempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		if calls == 3 {
			return 0, lastErr
		}
		return 0, errors.New("earlier")
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("err = %v, want last attempt's error", err)
	}
}

func TestRetryCancellationInterruptsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	_, err := Retry(ctx, RetryOptions{Attempts: 3, BaseDelay: 10 * time.Second}, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no attempt after cancellation)", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("backoff was not interrupted, took %s", elapsed)
	}
}

func TestRetryPerAttemptTimeout(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), RetryOptions{Attempts: 2, BaseDelay: time.Millisecond, Timeout: 20 * time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
