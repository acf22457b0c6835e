package fetcher

import (
	"context"
	"net/http"

	"github.com/Amund211/fetchcache/internal/domain"
)

type Fetcher interface {
	Fetch(ctx context.Context, request domain.Request) (domain.Response, error)
}

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}
