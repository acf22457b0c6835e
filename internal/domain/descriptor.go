package domain

import (
	"context"
	"time"

	"github.com/Amund211/fetchcache/internal/ratelimiting"
)

// RequestDescriptor is the caller-owned identity of a cacheable request.
//
// A descriptor may be dispatched any number of times, also several times within one batch.
// Every dispatch of the same descriptor shares its admission gate and its cancellation signal.
type RequestDescriptor struct {
	request Request
	ttl     time.Duration
	gate    *ratelimiting.AdmissionGate

	cancelled context.Context
	cancel    context.CancelCauseFunc
}

type DescriptorOption func(*descriptorOptions)

type descriptorOptions struct {
	maxPermits int
}

func WithMaxPermits(maxPermits int) DescriptorOption {
	return func(o *descriptorOptions) {
		o.maxPermits = maxPermits
	}
}

func NewRequestDescriptor(request Request, ttl time.Duration, opts ...DescriptorOption) *RequestDescriptor {
	options := descriptorOptions{maxPermits: ratelimiting.DefaultMaxPermits}
	for _, opt := range opts {
		opt(&options)
	}

	cancelled, cancel := context.WithCancelCause(context.Background())

	return &RequestDescriptor{
		request:   request,
		ttl:       ttl,
		gate:      ratelimiting.NewAdmissionGate(options.maxPermits),
		cancelled: cancelled,
		cancel:    cancel,
	}
}

func (d *RequestDescriptor) Key() Request {
	return d.request
}

func (d *RequestDescriptor) TTL() time.Duration {
	return d.ttl
}

func (d *RequestDescriptor) Gate() *ratelimiting.AdmissionGate {
	return d.gate
}

func (d *RequestDescriptor) String() string {
	return d.request.String()
}

// Cancel fires the cancellation signal for every current and future dispatch of the descriptor.
func (d *RequestDescriptor) Cancel() {
	d.cancel(ErrDescriptorCancelled)
}

func (d *RequestDescriptor) Cancelled() bool {
	return d.cancelled.Err() != nil
}

// Context returns a child of parent that is also cancelled when the descriptor is cancelled.
// The returned stop func must be called to release the association.
func (d *RequestDescriptor) Context(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	if d.cancelled.Err() != nil {
		// AfterFunc would cancel asynchronously
		cancel(context.Cause(d.cancelled))
	}
	stopAfter := context.AfterFunc(d.cancelled, func() {
		cancel(context.Cause(d.cancelled))
	})

	return ctx, func() {
		stopAfter()
		cancel(nil)
	}
}
