package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/Amund211/fetchcache/internal/logging"
	"github.com/Amund211/fetchcache/internal/measures"
	"github.com/Amund211/fetchcache/internal/ratelimiting"
	"github.com/Amund211/fetchcache/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fetchcache/app"

var ErrUnitPanicked = errors.New("resolving request panicked")

// Resolve looks up a single descriptor through the cache.
// Failures are logged and reported, and resolve to ok=false.
type Resolve func(ctx context.Context, descriptor *domain.RequestDescriptor) (domain.Response, bool)

type responseCache interface {
	Get(ctx context.Context, descriptor *domain.RequestDescriptor) (domain.Response, error)
}

func BuildResolve(
	responses responseCache,
	logger logging.Logger,
	collector measures.Collector,
	admissionTimeout time.Duration,
) Resolve {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, descriptor *domain.RequestDescriptor) (response domain.Response, ok bool) {
		ctx, span := tracer.Start(ctx, "Resolve", trace.WithAttributes(
			attribute.String("fetchcache.key", descriptor.String()),
		))
		defer span.End()

		ctx = logging.AddMetaToContext(ctx, logging.Fields{"key": descriptor.String()})
		ctx = reporting.SetRequestKeyInContext(ctx, descriptor.String())
		ctx = reporting.SetStartedAtInContext(ctx, time.Now())

		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%w: %v", ErrUnitPanicked, r)
				logger.Error(ctx, "Panic while resolving request", logging.Fields{"error": err.Error()})
				reporting.Report(ctx, err)
				span.SetStatus(codes.Error, err.Error())
				response, ok = domain.Response{}, false
			}
		}()

		collector.IncGetAttempts()

		ctx, stop := descriptor.Context(ctx)
		defer stop()

		release, err := descriptor.Gate().Acquire(ctx, admissionTimeout)
		if errors.Is(err, ratelimiting.ErrAdmissionTimeout) {
			logger.Error(ctx, "Timed out waiting for admission", logging.Fields{
				"timeout": admissionTimeout.String(),
				"inUse":   descriptor.Gate().InUse(),
			})
			reporting.Report(ctx, err)
			span.SetStatus(codes.Error, err.Error())
			return domain.Response{}, false
		} else if err != nil {
			logger.Info(ctx, "Cancelled while waiting for admission", logging.Fields{"error": err.Error()})
			return domain.Response{}, false
		}
		defer release()

		response, err = responses.Get(ctx, descriptor)
		if err != nil {
			span.RecordError(err)
			if ctx.Err() != nil {
				logger.Info(ctx, "Request cancelled", logging.Fields{"error": err.Error()})
				return domain.Response{}, false
			}

			// NOTE: The fetcher reports its own transport errors
			logger.Error(ctx, "Failed to resolve request", logging.Fields{"error": err.Error()})
			span.SetStatus(codes.Error, err.Error())
			return domain.Response{}, false
		}

		logger.Debug(ctx, "Resolved request", logging.Fields{
			"bytes":     len(response.Payload),
			"fetchedAt": response.FetchedAt,
		})

		return response, true
	}
}
