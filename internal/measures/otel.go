package measures

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

type otelCollector struct {
	getAttempts metric.Int64Counter
	misses      metric.Int64Counter
	evictions   metric.Int64Counter
}

func NewOTelCollector(meter metric.Meter) (Collector, error) {
	getAttempts, err := meter.Int64Counter(
		"cache/get_attempts",
		metric.WithDescription("Total number of lookups dispatched to the cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get attempts metric: %w", err)
	}

	misses, err := meter.Int64Counter(
		"cache/misses",
		metric.WithDescription("Total number of lookups that triggered a fetch"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create misses metric: %w", err)
	}

	evictions, err := meter.Int64Counter(
		"cache/evictions",
		metric.WithDescription("Total number of eviction attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create evictions metric: %w", err)
	}

	return &otelCollector{
		getAttempts: getAttempts,
		misses:      misses,
		evictions:   evictions,
	}, nil
}

func (c *otelCollector) IncGetAttempts() {
	c.getAttempts.Add(context.Background(), 1)
}

func (c *otelCollector) IncMisses() {
	c.misses.Add(context.Background(), 1)
}

func (c *otelCollector) IncEvictions() {
	c.evictions.Add(context.Background(), 1)
}
