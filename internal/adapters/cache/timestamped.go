package cache

import (
	"context"
	"time"

	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/Amund211/fetchcache/internal/logging"
	"github.com/Amund211/fetchcache/internal/measures"
)

type Fetch[V any] func(ctx context.Context, request domain.Request) (V, error)

type stamped[V any] struct {
	value     V
	createdAt time.Time
}

// TimeStampedCache is a SingleFlightCache keyed by request where each value expires after the ttl of
// the descriptor it is read through.
//
// Expiry is checked on read. An expired entry stays until the next read of its key.
type TimeStampedCache[V any] struct {
	flights *SingleFlightCache[domain.Request, stamped[V]]
	logger  logging.Logger
	nowFunc func() time.Time
}

func NewTimeStampedCache[V any](fetch Fetch[V], logger logging.Logger, collector measures.Collector, nowFunc func() time.Time) *TimeStampedCache[V] {
	c := &TimeStampedCache[V]{
		logger:  logger,
		nowFunc: nowFunc,
	}

	c.flights = NewSingleFlightCache(func(ctx context.Context, request domain.Request) (stamped[V], error) {
		value, err := fetch(ctx, request)
		if err != nil {
			return stamped[V]{}, err
		}
		return stamped[V]{value: value, createdAt: c.nowFunc()}, nil
	}, collector)

	return c
}

func (c *TimeStampedCache[V]) Get(ctx context.Context, descriptor *domain.RequestDescriptor) (V, error) {
	observed, entry, err := c.flights.await(ctx, descriptor.Key())
	if err != nil {
		var empty V
		return empty, err
	}

	now := c.nowFunc()
	if entry.createdAt.Add(descriptor.TTL()).After(now) {
		return entry.value, nil
	}
	return c.refresh(ctx, descriptor, observed, now.Sub(entry.createdAt))
}

// refresh evicts the expired entry read from observed and waits for its replacement.
func (c *TimeStampedCache[V]) refresh(ctx context.Context, descriptor *domain.RequestDescriptor, observed *flight[stamped[V]], age time.Duration) (V, error) {
	key := descriptor.Key()

	c.logger.Debug(ctx, "Cache entry expired", logging.Fields{
		"key": key.String(),
		"age": age.String(),
		"ttl": descriptor.TTL().String(),
	})

	if !c.flights.evict(key, observed) {
		// Another reader replaced the entry between our read and the eviction
		c.logger.Error(ctx, "Expired cache entry was already evicted", logging.Fields{
			"key": key.String(),
		})
	}

	entry, err := c.flights.Get(ctx, key)
	if err != nil {
		var empty V
		return empty, err
	}
	return entry.value, nil
}

func (c *TimeStampedCache[V]) Remove(request domain.Request) bool {
	return c.flights.Remove(request)
}

func (c *TimeStampedCache[V]) Size() int {
	return c.flights.Size()
}
