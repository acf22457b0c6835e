package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Amund211/fetchcache/internal/config"
	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/Amund211/fetchcache/internal/logging"
	"github.com/Amund211/fetchcache/internal/ratelimiting"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type mockedFetcher struct {
	nowFunc func() time.Time
}

func (m *mockedFetcher) Fetch(ctx context.Context, request domain.Request) (domain.Response, error) {
	if err := ctx.Err(); err != nil {
		return domain.Response{}, context.Cause(ctx)
	}
	return domain.Response{
		Payload:    []byte(fmt.Sprintf(`{"mocked":true,"request":"%s"}`, request.String())),
		StatusCode: http.StatusOK,
		FetchedAt:  m.nowFunc(),
	}, nil
}

func NewMockedFetcher(nowFunc func() time.Time) Fetcher {
	return &mockedFetcher{nowFunc: nowFunc}
}

// NewHTTPClient returns a client with traced transport
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewFetcherOrMock builds the fetcher described by conf.
// The returned func stops the background work of the rate limiter.
func NewFetcherOrMock(
	conf config.Config,
	httpClient HttpClient,
	logger logging.Logger,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) (Fetcher, func(), error) {
	if conf.MockFetcher() {
		if !conf.IsDevelopment() {
			return nil, nil, fmt.Errorf("Mocked fetcher in non-development environment")
		}
		return NewMockedFetcher(nowFunc), func() {}, nil
	}

	limiter, stop := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(conf.HostRateLimit()),
		ratelimiting.BurstSize(conf.HostBurst()),
	)

	opts := []HTTPFetcherOption{
		WithHostRateLimiter(ratelimiting.NewRequestBasedRateLimiter(limiter, ratelimiting.HostKeyFunc)),
		WithNowFunc(nowFunc),
	}
	if conf.RequestQuota() > 0 {
		opts = append(opts, WithRequestQuota(
			ratelimiting.NewWindowQuota(conf.RequestQuota(), conf.RequestQuotaWindow(), nowFunc, afterFunc),
		))
	}

	f, err := NewHTTPFetcher(httpClient, logger, opts...)
	if err != nil {
		stop()
		return nil, nil, err
	}

	return f, stop, nil
}
