package generation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/example/app-builder/internal/failure"
	"github.com/example/app-builder/internal/providers/llm"
)

type outcome struct {
	completion *llm.Completion
	err        error
}

// latch settles once. The first writer wins and later writers are dropped
// without blocking.
type latch struct {
	settled atomic.Bool
	ch      chan outcome
}

func newLatch() *latch {
	return &latch{ch: make(chan outcome, 1)}
}

func (l *latch) settle(o outcome) bool {
	if !l.settled.CompareAndSwap(false, true) {
		return false
	}
	l.ch <- o
	return true
}

// race runs call against a timer of timeout and the end of ctx. Whichever
// finishes first decides the result; the call's context is cancelled on return
// so a slow request is released.
func race(ctx context.Context, timeout time.Duration, call func(context.Context) (*llm.Completion, error)) (*llm.Completion, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := newLatch()
	go func() {
		c, err := call(callCtx)
		l.settle(outcome{completion: c, err: err})
	}()

	timer := time.AfterFunc(timeout, func() {
		l.settle(outcome{err: timeoutError(timeout)})
	})
	defer timer.Stop()

	stop := context.AfterFunc(ctx, func() {
		l.settle(outcome{err: contextError(ctx)})
	})
	defer stop()

	o := <-l.ch
	return o.completion, o.err
}

func timeoutError(timeout time.Duration) *failure.Error {
	return failure.Newf(failure.Timeout, "Request timeout: No response from AI model after %dms", timeout.Milliseconds())
}

// contextError classifies the end of the caller's context. A deadline set by
// the caller reads as a timeout, anything else as a cancellation.
func contextError(ctx context.Context) *failure.Error {
	cause := context.Cause(ctx)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure.Wrap(failure.Timeout, cause, "Request timeout: No response from AI model before the deadline")
	}
	return failure.Wrap(failure.Cancelled, cause, "Generation cancelled.")
}
