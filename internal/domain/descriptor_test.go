package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRequestDescriptor(t *testing.T) {
	t.Parallel()

	request := domain.NewGetRequest("https://example.com/data")

	t.Run("exposes key and ttl", func(t *testing.T) {
		t.Parallel()

		descriptor := domain.NewRequestDescriptor(request, 2*time.Second)
		require.Equal(t, request, descriptor.Key())
		require.Equal(t, 2*time.Second, descriptor.TTL())
		require.Equal(t, "GET https://example.com/data", descriptor.String())
		require.NotNil(t, descriptor.Gate())
	})

	t.Run("descriptors with the same request share a key", func(t *testing.T) {
		t.Parallel()

		a := domain.NewRequestDescriptor(request, time.Second)
		b := domain.NewRequestDescriptor(domain.NewGetRequest("https://example.com/data"), time.Minute)
		require.Equal(t, a.Key(), b.Key())
		require.NotSame(t, a.Gate(), b.Gate())
	})

	t.Run("max permits option", func(t *testing.T) {
		t.Parallel()

		descriptor := domain.NewRequestDescriptor(request, time.Second, domain.WithMaxPermits(3))
		require.Equal(t, 3, descriptor.Gate().Capacity())
	})

	t.Run("context follows descriptor cancellation", func(t *testing.T) {
		t.Parallel()

		descriptor := domain.NewRequestDescriptor(request, time.Second)
		ctx, stop := descriptor.Context(context.Background())
		defer stop()

		require.NoError(t, ctx.Err())
		require.False(t, descriptor.Cancelled())

		descriptor.Cancel()
		require.True(t, descriptor.Cancelled())

		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
			require.FailNow(t, "context was not cancelled")
		}
		require.ErrorIs(t, context.Cause(ctx), domain.ErrDescriptorCancelled)
	})

	t.Run("context of a cancelled descriptor is cancelled immediately", func(t *testing.T) {
		t.Parallel()

		descriptor := domain.NewRequestDescriptor(request, time.Second)
		descriptor.Cancel()

		ctx, stop := descriptor.Context(context.Background())
		defer stop()

		require.ErrorIs(t, context.Cause(ctx), domain.ErrDescriptorCancelled)
	})

	t.Run("context follows parent cancellation", func(t *testing.T) {
		t.Parallel()

		descriptor := domain.NewRequestDescriptor(request, time.Second)
		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := descriptor.Context(parent)
		defer stop()

		cancel()
		require.ErrorIs(t, ctx.Err(), context.Canceled)
		require.False(t, descriptor.Cancelled())
	})
}
