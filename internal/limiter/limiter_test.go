package limiter

import (
	"context"
	"testing"
	"time"
)

func TestLimiterAcquireRelease(t *testing.T) {
	l := New(time.Second, 1)
	tl, release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer release()
	if tl.Context().Err() != nil {
		t.Fatalf("expected fresh context to be alive")
	}
}

func TestLimiterCapacityBlocksSecondAcquire(t *testing.T) {
	l := New(time.Second, 1)
	_, release1, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err = l.Acquire(ctx)
	if err == nil {
		t.Fatalf("expected second acquire to block until timeout")
	}
	release1()
}

func TestTimeLimiterCancelsAfterIdleTimeout(t *testing.T) {
	l := New(30*time.Millisecond, 0)
	tl, release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer release()

	select {
	case <-tl.Context().Done():
		if tl.Context().Err() != context.Canceled && tl.Context().Err() != context.DeadlineExceeded {
			t.Fatalf("unexpected err: %s", tl.Context().Err())
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected context to be canceled by idle timeout")
	}
}

func TestTimeLimiterExtendPostponesTimeout(t *testing.T) {
	l := New(60*time.Millisecond, 0)
	tl, release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer release()

	deadline := time.After(40 * time.Millisecond)
	extended := false
	for !extended {
		select {
		case <-deadline:
			tl.Extend()
			extended = true
		case <-tl.Context().Done():
			t.Fatalf("context canceled before extend was applied")
		}
	}

	select {
	case <-tl.Context().Done():
		// expected eventually, once the extended window elapses
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected context to eventually cancel")
	}
}
