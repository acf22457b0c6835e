package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Amund211/fetchcache/internal/measures"
)

var ErrComputationPanicked = errors.New("computation panicked")

// Factory computes the value for key. It is called at most once per claimed entry.
type Factory[K comparable, V any] func(ctx context.Context, key K) (V, error)

// flight is the shared handle for one computation of a key.
// value and err are written once, before done is closed.
type flight[V any] struct {
	done  chan struct{}
	value V
	err   error
	// abandoned is set when the computation failed after its claimant's ctx ended
	abandoned bool
}

func (f *flight[V]) wait(ctx context.Context) (V, error) {
	// Prefer a settled result over an ended context
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var empty V
		return empty, context.Cause(ctx)
	}
}

// SingleFlightCache memoizes the result of factory per key.
//
// At most one computation per key is in flight at any time. Concurrent callers for the same key
// all wait for that computation. Successful results are kept until removed. Failed computations
// remove themselves before their waiters are released, so the next Get computes again.
type SingleFlightCache[K comparable, V any] struct {
	// key -> *flight[V]
	flights   sync.Map
	size      atomic.Int64
	factory   Factory[K, V]
	collector measures.Collector
}

func NewSingleFlightCache[K comparable, V any](factory Factory[K, V], collector measures.Collector) *SingleFlightCache[K, V] {
	if collector == nil {
		collector = measures.NewNopCollector()
	}
	return &SingleFlightCache[K, V]{
		factory:   factory,
		collector: collector,
	}
}

// Get returns the value for key, computing it if no computation exists.
//
// The computation runs in the goroutine of the caller that claims the key, bound to that caller's ctx.
// Other callers stop waiting when their ctx ends, while the computation continues.
// A computation abandoned by its claimant's cancellation is claimed again by waiters whose ctx is live.
func (c *SingleFlightCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	_, value, err := c.await(ctx, key)
	return value, err
}

// await returns the flight the result was read from along with the result.
func (c *SingleFlightCache[K, V]) await(ctx context.Context, key K) (*flight[V], V, error) {
	for {
		f := c.flightFor(ctx, key)
		value, err := f.wait(ctx)
		// ctx is live, so f.done is closed and abandoned is safe to read
		if err != nil && ctx.Err() == nil && f.abandoned {
			continue
		}
		return f, value, err
	}
}

func (c *SingleFlightCache[K, V]) flightFor(ctx context.Context, key K) *flight[V] {
	if existing, ok := c.flights.Load(key); ok {
		return existing.(*flight[V])
	}

	claimed := &flight[V]{done: make(chan struct{})}
	// Count before publishing so a concurrent Remove never takes Size below zero
	c.size.Add(1)
	existing, loaded := c.flights.LoadOrStore(key, claimed)
	if loaded {
		c.size.Add(-1)
		return existing.(*flight[V])
	}

	c.collector.IncMisses()
	c.compute(ctx, key, claimed)

	return claimed
}

func (c *SingleFlightCache[K, V]) compute(ctx context.Context, key K, f *flight[V]) {
	defer func() {
		if r := recover(); r != nil {
			var empty V
			f.value = empty
			f.err = fmt.Errorf("%w: %v", ErrComputationPanicked, r)
		}

		if f.err != nil {
			f.abandoned = ctx.Err() != nil
			// Never remove a successor installed after a Remove
			if c.flights.CompareAndDelete(key, f) {
				c.size.Add(-1)
			}
		}

		close(f.done)
	}()

	f.value, f.err = c.factory(ctx, key)
}

// Remove drops the entry for key, pending or settled. Callers already waiting keep their result.
func (c *SingleFlightCache[K, V]) Remove(key K) bool {
	c.collector.IncEvictions()

	_, loaded := c.flights.LoadAndDelete(key)
	if loaded {
		c.size.Add(-1)
	}
	return loaded
}

// evict removes the entry for key only if it is still f
func (c *SingleFlightCache[K, V]) evict(key K, f *flight[V]) bool {
	c.collector.IncEvictions()

	if c.flights.CompareAndDelete(key, f) {
		c.size.Add(-1)
		return true
	}
	return false
}

// Size is the number of pending and settled entries
func (c *SingleFlightCache[K, V]) Size() int {
	return int(c.size.Load())
}
