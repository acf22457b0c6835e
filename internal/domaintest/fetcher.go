package domaintest

import (
	"context"
	"sync"
	"time"

	"github.com/Amund211/fetchcache/internal/domain"
)

// CountingFetcher counts the fetches per request and serves the payload "payload: <request>"
//
// When Gate is set, every fetch blocks until Gate is closed or the context ends.
// Err, when set, is returned instead of a response.
type CountingFetcher struct {
	Gate    chan struct{}
	Err     error
	NowFunc func() time.Time

	mu     sync.Mutex
	counts map[domain.Request]int
	total  int
}

func (f *CountingFetcher) Fetch(ctx context.Context, request domain.Request) (domain.Response, error) {
	f.mu.Lock()
	if f.counts == nil {
		f.counts = make(map[domain.Request]int)
	}
	f.counts[request]++
	f.total++
	f.mu.Unlock()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return domain.Response{}, context.Cause(ctx)
		}
	}

	if f.Err != nil {
		return domain.Response{}, f.Err
	}

	fetchedAt := time.Now()
	if f.NowFunc != nil {
		fetchedAt = f.NowFunc()
	}

	return domain.Response{
		Payload:    []byte("payload: " + request.String()),
		StatusCode: 200,
		FetchedAt:  fetchedAt,
	}, nil
}

func (f *CountingFetcher) Count(request domain.Request) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[request]
}

func (f *CountingFetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}
