package ratelimiting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxPermits is a safety ceiling rather than a tight bound on work in flight
const DefaultMaxPermits = 1000

var ErrAdmissionTimeout = errors.New("timed out waiting for admission")

// AdmissionGate bounds the number of concurrent attempts to resolve one request descriptor.
type AdmissionGate struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    atomic.Int64
}

func NewAdmissionGate(maxPermits int) *AdmissionGate {
	if maxPermits <= 0 {
		maxPermits = DefaultMaxPermits
	}

	return &AdmissionGate{
		sem:      semaphore.NewWeighted(int64(maxPermits)),
		capacity: int64(maxPermits),
	}
}

// Acquire waits until a permit is available, the timeout elapses or ctx is done.
//
// On success the returned release func must be called once the guarded work is done.
// Calling it more than once is harmless.
// A timeout <= 0 waits for as long as ctx allows.
func (g *AdmissionGate) Acquire(ctx context.Context, timeout time.Duration) (func(), error) {
	acquireCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeoutCause(ctx, timeout, ErrAdmissionTimeout)
		defer cancel()
	}

	err := g.sem.Acquire(acquireCtx, 1)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("admission cancelled: %w", context.Cause(ctx))
		}
		return nil, fmt.Errorf("%w after %s", ErrAdmissionTimeout, timeout)
	}
	g.inUse.Add(1)

	var once sync.Once
	return func() {
		once.Do(g.release)
	}, nil
}

func (g *AdmissionGate) release() {
	for {
		held := g.inUse.Load()
		if held <= 0 {
			// Releasing now would push the gate past its capacity
			return
		}
		if g.inUse.CompareAndSwap(held, held-1) {
			g.sem.Release(1)
			return
		}
	}
}

func (g *AdmissionGate) InUse() int {
	return int(g.inUse.Load())
}

func (g *AdmissionGate) Capacity() int {
	return int(g.capacity)
}
