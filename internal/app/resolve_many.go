package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/Amund211/fetchcache/internal/logging"
	"github.com/Amund211/fetchcache/internal/reporting"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrBatchDeadline = fmt.Errorf("batch deadline exceeded: %w", context.DeadlineExceeded)

// ResolveMany resolves every descriptor concurrently, duplicates included.
//
// It returns nil once every unit finished, or the context error if the batch deadline or ctx ends first.
// Units still running at that point are not aborted. They keep populating the cache until they finish
// or their descriptor is cancelled.
type ResolveMany func(ctx context.Context, descriptors []*domain.RequestDescriptor) error

func BuildResolveMany(
	resolve Resolve,
	logger logging.Logger,
	deadline time.Duration,
	heartbeatInterval time.Duration,
) ResolveMany {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, descriptors []*domain.RequestDescriptor) error {
		batchID := uuid.NewString()
		ctx = logging.AddMetaToContext(ctx, logging.Fields{"batchID": batchID})
		ctx = reporting.SetBatchIDInContext(ctx, batchID)

		ctx, span := tracer.Start(ctx, "ResolveMany", trace.WithAttributes(
			attribute.String("fetchcache.batch_id", batchID),
			attribute.Int("fetchcache.batch_size", len(descriptors)),
		))
		defer span.End()

		if deadline > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeoutCause(ctx, deadline, ErrBatchDeadline)
			defer cancel()
		}

		// Units outlive the batch deadline, only descriptor cancellation stops them
		unitCtx := context.WithoutCancel(ctx)

		var pending atomic.Int64
		pending.Store(int64(len(descriptors)))

		var wg sync.WaitGroup
		for _, descriptor := range descriptors {
			wg.Go(func() {
				defer pending.Add(-1)
				resolve(unitCtx, descriptor)
			})
		}

		allDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(allDone)
		}()

		stopWatchdog := StartWatchdog(ctx, logger, heartbeatInterval, func() int {
			return int(pending.Load())
		})
		defer stopWatchdog()

		select {
		case <-allDone:
			logger.Debug(ctx, "Batch finished", logging.Fields{"size": len(descriptors)})
			return nil
		case <-ctx.Done():
			err := context.Cause(ctx)
			logger.Warn(ctx, "Batch ended before all requests finished", logging.Fields{
				"size":    len(descriptors),
				"pending": pending.Load(),
				"error":   err.Error(),
			})
			span.RecordError(err)
			return err
		}
	}
}
