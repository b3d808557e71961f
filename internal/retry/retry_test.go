package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_RetriesUpToMaxAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialWait: time.Millisecond, Linear: true}

	attempts := 0
	err := Do(context.Background(), cfg, func() error {
		attempts++
		return Retryable(errors.New("boom"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialWait: time.Millisecond}

	attempts := 0
	sentinel := errors.New("hard failure")
	err := Do(context.Background(), cfg, func() error {
		attempts++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	cfg := ListingConfig(time.Millisecond)

	attempts := 0
	err := Do(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	cfg := Config{MaxAttempts: 2, InitialWait: time.Millisecond}

	got, err := DoWithResult(context.Background(), cfg, func() (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("got %d, %v", got, err)
	}
}

func TestDo_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 0, InitialWait: time.Millisecond, Linear: true}

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return Retryable(errors.New("transient"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestWaitFor_LinearSchedule(t *testing.T) {
	cfg := Config{InitialWait: 10 * time.Millisecond, Linear: true, MaxWait: time.Second}
	for attempt := 1; attempt <= 3; attempt++ {
		want := time.Duration(attempt) * 10 * time.Millisecond
		if got := waitFor(cfg, attempt); got != want {
			t.Errorf("waitFor(attempt=%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error reported retryable")
	}
	if !IsRetryable(Retryable(errors.New("x"))) {
		t.Error("wrapped error not reported retryable")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
}
