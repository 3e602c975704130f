// Package limiter bounds the resources one MiniMCP instance spends on
// concurrent message processing: a process-wide capacity ceiling and a
// per-message idle timeout that resets every time the handler makes
// progress (sends a notification). Grounded on the original minimcp
// limiter.py's Limiter/TimeLimiter pair, translated from anyio's
// CapacityLimiter+CancelScope onto golang.org/x/sync/semaphore plus a
// resettable deadline timer.
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Limiter owns the process-wide capacity semaphore and hands out a fresh
// TimeLimiter for every acquired slot.
type Limiter struct {
	idleTimeout time.Duration
	sem         *semaphore.Weighted
}

// New builds a Limiter. maxConcurrency <= 0 means unbounded capacity.
func New(idleTimeout time.Duration, maxConcurrency int64) *Limiter {
	var sem *semaphore.Weighted
	if maxConcurrency > 0 {
		sem = semaphore.NewWeighted(maxConcurrency)
	}
	return &Limiter{idleTimeout: idleTimeout, sem: sem}
}

// Acquire blocks until a capacity slot is available (or ctx is done),
// returning a TimeLimiter scoped to this one message and a release func that
// must always be called once processing finishes.
func (l *Limiter) Acquire(ctx context.Context) (*TimeLimiter, func(), error) {
	if l.sem != nil {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return nil, nil, err
		}
	}
	tl := newTimeLimiter(ctx, l.idleTimeout)
	release := func() {
		tl.stop()
		if l.sem != nil {
			l.sem.Release(1)
		}
	}
	return tl, release, nil
}

// TimeLimiter derives a context that is canceled with context.DeadlineExceeded
// if the idle timeout elapses without a call to Extend. Calling Extend
// pushes the deadline forward by the same idle timeout, mirroring reset()
// moving the original CancelScope's deadline.
type TimeLimiter struct {
	mu      sync.Mutex
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelCauseFunc
	timer   *time.Timer
	stopped bool
}

var errIdleTimeout = context.DeadlineExceeded

func newTimeLimiter(parent context.Context, timeout time.Duration) *TimeLimiter {
	ctx, cancel := context.WithCancelCause(parent)
	tl := &TimeLimiter{timeout: timeout, ctx: ctx, cancel: cancel}
	if timeout > 0 {
		tl.timer = time.AfterFunc(timeout, func() { tl.cancel(errIdleTimeout) })
	}
	return tl
}

// Context returns the context handlers should observe for cancellation.
func (tl *TimeLimiter) Context() context.Context { return tl.ctx }

// Extend resets the idle timeout, as if processing had just restarted. Call
// this every time the handler sends a notification (progress or otherwise)
// so a slow-but-alive stream is never killed early.
func (tl *TimeLimiter) Extend() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.stopped || tl.timer == nil {
		return
	}
	tl.timer.Reset(tl.timeout)
}

func (tl *TimeLimiter) stop() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.stopped = true
	if tl.timer != nil {
		tl.timer.Stop()
	}
	tl.cancel(nil)
}
