package domain

import (
	"fmt"
	"time"
)

// Request identifies a cacheable fetch. It is comparable and used directly as the cache key.
type Request struct {
	Method string
	URL    string
}

func NewGetRequest(url string) Request {
	return Request{Method: "GET", URL: url}
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s", r.Method, r.URL)
}

type Response struct {
	Payload    []byte
	StatusCode int
	FetchedAt  time.Time
}
