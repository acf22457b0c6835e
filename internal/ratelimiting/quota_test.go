package ratelimiting_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Amund211/fetchcache/internal/ratelimiting"
	"github.com/stretchr/testify/require"
)

func TestWindowQuota(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("operations within the limit run immediately", func(t *testing.T) {
		t.Parallel()
		mocked := newMockedTime(t, start)
		q := ratelimiting.NewWindowQuota(3, 10*time.Second, mocked.Now, mocked.After)

		ran := 0
		for range 3 {
			err := q.Do(ctx, time.Second, func() error {
				ran++
				return nil
			})
			require.NoError(t, err)
		}
		require.Equal(t, 3, ran)
		require.Equal(t, 0, mocked.pendingTimers())
	})

	t.Run("operation errors are returned", func(t *testing.T) {
		t.Parallel()
		mocked := newMockedTime(t, start)
		q := ratelimiting.NewWindowQuota(1, 10*time.Second, mocked.Now, mocked.After)

		opErr := errors.New("upstream failed")
		err := q.Do(ctx, time.Second, func() error { return opErr })
		require.ErrorIs(t, err, opErr)
	})

	t.Run("exhausted quota waits for the window", func(t *testing.T) {
		t.Parallel()
		mocked := newMockedTime(t, start)
		q := ratelimiting.NewWindowQuota(1, 10*time.Second, mocked.Now, mocked.After)

		require.NoError(t, q.Do(ctx, time.Second, func() error { return nil }))

		var startedAt atomic.Pointer[time.Time]
		done := make(chan error)
		go func() {
			done <- q.Do(ctx, time.Second, func() error {
				now := mocked.Now()
				startedAt.Store(&now)
				return nil
			})
		}()

		require.Eventually(t, func() bool { return mocked.pendingTimers() == 1 }, 5*time.Second, time.Millisecond)
		require.Nil(t, startedAt.Load())

		mocked.advance(10 * time.Second)
		require.NoError(t, <-done)
		require.Equal(t, start.Add(10*time.Second), *startedAt.Load())
	})

	t.Run("deadline too close is rejected without waiting", func(t *testing.T) {
		t.Parallel()
		mocked := newMockedTime(t, start)
		q := ratelimiting.NewWindowQuota(1, 10*time.Second, mocked.Now, mocked.After)

		require.NoError(t, q.Do(ctx, time.Second, func() error { return nil }))

		deadlineCtx := newMockedContext(start.Add(5 * time.Second))

		err := q.Do(deadlineCtx, time.Second, func() error {
			require.FailNow(t, "operation should not run")
			return nil
		})
		require.ErrorIs(t, err, ratelimiting.ErrQuotaWouldMissDeadline)
		require.Equal(t, 0, mocked.pendingTimers())
	})

	t.Run("rejected operation does not consume quota", func(t *testing.T) {
		t.Parallel()
		mocked := newMockedTime(t, start)
		q := ratelimiting.NewWindowQuota(1, 10*time.Second, mocked.Now, mocked.After)

		require.NoError(t, q.Do(ctx, time.Second, func() error { return nil }))

		deadlineCtx := newMockedContext(start.Add(5 * time.Second))
		require.ErrorIs(t, q.Do(deadlineCtx, time.Second, func() error { return nil }), ratelimiting.ErrQuotaWouldMissDeadline)

		mocked.advance(10 * time.Second)
		ran := false
		require.NoError(t, q.Do(ctx, time.Second, func() error {
			ran = true
			return nil
		}))
		require.True(t, ran)
	})

	t.Run("cancelled wait returns the cause", func(t *testing.T) {
		t.Parallel()
		mocked := newMockedTime(t, start)
		q := ratelimiting.NewWindowQuota(1, 10*time.Second, mocked.Now, mocked.After)

		require.NoError(t, q.Do(ctx, time.Second, func() error { return nil }))

		cancelCtx, cancel := context.WithCancel(ctx)
		done := make(chan error)
		go func() {
			done <- q.Do(cancelCtx, time.Second, func() error { return nil })
		}()

		require.Eventually(t, func() bool { return mocked.pendingTimers() == 1 }, 5*time.Second, time.Millisecond)
		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
	})
}
