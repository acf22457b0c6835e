package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Amund211/fetchcache/internal/constants"
	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/Amund211/fetchcache/internal/logging"
	"github.com/Amund211/fetchcache/internal/ratelimiting"
	"github.com/Amund211/fetchcache/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Reserved per request when checking the quota against the context deadline
const fetchMaxOperationTime = 2 * time.Second

type httpFetcherMetricsCollection struct {
	requestCount metric.Int64Counter
}

func setupHTTPFetcherMetrics(meter metric.Meter) (httpFetcherMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("fetcher/http/request_count")
	if err != nil {
		return httpFetcherMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	return httpFetcherMetricsCollection{
		requestCount: requestCount,
	}, nil
}

type httpFetcher struct {
	httpClient      HttpClient
	logger          logging.Logger
	hostLimiter     ratelimiting.RequestRateLimiter
	quota           *ratelimiting.WindowQuota
	maxPayloadBytes int64
	nowFunc         func() time.Time

	metrics httpFetcherMetricsCollection
	tracer  trace.Tracer
}

type HTTPFetcherOption func(*httpFetcher)

// WithHostRateLimiter waits for the limiter before every request
func WithHostRateLimiter(limiter ratelimiting.RequestRateLimiter) HTTPFetcherOption {
	return func(f *httpFetcher) {
		f.hostLimiter = limiter
	}
}

// WithRequestQuota runs every request within the quota
func WithRequestQuota(quota *ratelimiting.WindowQuota) HTTPFetcherOption {
	return func(f *httpFetcher) {
		f.quota = quota
	}
}

func WithMaxPayloadBytes(maxPayloadBytes int64) HTTPFetcherOption {
	return func(f *httpFetcher) {
		f.maxPayloadBytes = maxPayloadBytes
	}
}

func WithNowFunc(nowFunc func() time.Time) HTTPFetcherOption {
	return func(f *httpFetcher) {
		f.nowFunc = nowFunc
	}
}

func NewHTTPFetcher(httpClient HttpClient, logger logging.Logger, opts ...HTTPFetcherOption) (Fetcher, error) {
	const name = "fetchcache/fetcher/http"

	metrics, err := setupHTTPFetcherMetrics(otel.Meter(name))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	f := &httpFetcher{
		httpClient:      httpClient,
		logger:          logger,
		maxPayloadBytes: constants.MAX_PAYLOAD_BYTES,
		nowFunc:         time.Now,

		metrics: metrics,
		tracer:  otel.Tracer(name),
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *httpFetcher) Fetch(ctx context.Context, request domain.Request) (domain.Response, error) {
	ctx, span := f.tracer.Start(ctx, "HTTPFetcher.Fetch", trace.WithAttributes(
		attribute.String("http.request.method", request.Method),
		attribute.String("url.full", request.URL),
	))
	defer span.End()

	response, err := f.fetch(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Response{}, fmt.Errorf("fetch %s: %w", request.String(), err)
	}
	return response, nil
}

func (f *httpFetcher) fetch(ctx context.Context, request domain.Request) (domain.Response, error) {
	req, err := http.NewRequestWithContext(ctx, request.Method, request.URL, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return domain.Response{}, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)

	if f.hostLimiter != nil {
		if err := f.hostLimiter.Wait(ctx, req); err != nil {
			return domain.Response{}, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	var response domain.Response
	do := func() error {
		var err error
		response, err = f.do(ctx, req)
		return err
	}

	if f.quota == nil {
		err = do()
	} else {
		err = f.quota.Do(ctx, fetchMaxOperationTime, do)
		if errors.Is(err, ratelimiting.ErrQuotaWouldMissDeadline) {
			f.logger.Warn(ctx, "Did not fetch due to request quota", logging.Fields{"key": request.String()})
		}
	}
	if err != nil {
		return domain.Response{}, err
	}

	return response, nil
}

func (f *httpFetcher) do(ctx context.Context, req *http.Request) (domain.Response, error) {
	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("failed to send request: %w", err)
		if ctx.Err() == nil {
			reporting.Report(ctx, err)
		}
		return domain.Response{}, err
	}
	fetchedAt := f.nowFunc()

	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxPayloadBytes+1))
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		reporting.Report(ctx, err)
		return domain.Response{}, err
	}

	f.metrics.requestCount.Add(
		ctx,
		1,
		metric.WithAttributes(
			attribute.String("status_code", strconv.Itoa(resp.StatusCode)),
			attribute.String("host", req.URL.Host),
		),
	)

	f.logger.Debug(ctx, "Request completed", logging.Fields{
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
		"bytes":    len(data),
	})

	if int64(len(data)) > f.maxPayloadBytes {
		return domain.Response{}, fmt.Errorf("%w: more than %d bytes", domain.ErrPayloadTooLarge, f.maxPayloadBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Response{}, fmt.Errorf("%w: %d", domain.ErrUnsuccessfulStatus, resp.StatusCode)
	}

	if len(data) == 0 {
		return domain.Response{}, domain.ErrEmptyPayload
	}

	return domain.Response{
		Payload:    data,
		StatusCode: resp.StatusCode,
		FetchedAt:  fetchedAt,
	}, nil
}
