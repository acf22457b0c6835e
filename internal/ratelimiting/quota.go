package ratelimiting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

var ErrQuotaWouldMissDeadline = errors.New("request quota wait would exceed the deadline")

// WindowQuota allows at most limit operations to finish within any window of time.
//
// Operations are started as soon as the oldest of the last limit finished operations
// left the window.
type WindowQuota struct {
	limit     int
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	slots    chan struct{}
	finished []time.Time
	mutex    sync.Mutex
}

func NewWindowQuota(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *WindowQuota {
	slots := make(chan struct{}, limit)
	for range limit {
		slots <- struct{}{}
	}

	// Start with a history outside the window so the first operations run immediately
	finished := make([]time.Time, limit)
	longAgo := nowFunc().Add(-window)
	for i := range finished {
		finished[i] = longAgo
	}

	return &WindowQuota{
		limit:     limit,
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,

		slots:    slots,
		finished: finished,
	}
}

// Do runs operation once the quota allows it.
//
// If ctx has a deadline and waiting for the quota plus maxOperationTime would pass it,
// Do returns ErrQuotaWouldMissDeadline without waiting.
// Errors from operation are returned as is.
func (q *WindowQuota) Do(ctx context.Context, maxOperationTime time.Duration, operation func() error) error {
	select {
	case <-q.slots:
		defer func() {
			q.slots <- struct{}{}
		}()
	case <-ctx.Done():
		return fmt.Errorf("waiting for request quota: %w", context.Cause(ctx))
	}

	oldest, err := q.claimOldest(ctx, maxOperationTime)
	if err != nil {
		return err
	}
	// Put back the claimed finish time unless the operation runs
	toInsert := oldest
	defer func() {
		q.insertFinished(toInsert)
	}()

	if wait := q.waitFor(oldest); wait > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for request quota: %w", context.Cause(ctx))
		case <-q.afterFunc(wait):
		}
	}

	err = operation()
	toInsert = q.nowFunc()
	return err
}

func (q *WindowQuota) waitFor(finishedAt time.Time) time.Duration {
	return q.window - q.nowFunc().Sub(finishedAt)
}

func (q *WindowQuota) claimOldest(ctx context.Context, maxOperationTime time.Duration) (time.Time, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	oldest := q.finished[0]

	if deadline, ok := ctx.Deadline(); ok {
		if q.waitFor(oldest)+maxOperationTime > deadline.Sub(q.nowFunc()) {
			return time.Time{}, ErrQuotaWouldMissDeadline
		}
	}

	q.finished = q.finished[1:]
	return oldest, nil
}

func (q *WindowQuota) insertFinished(finishedAt time.Time) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	i, _ := slices.BinarySearchFunc(q.finished, finishedAt, func(a, b time.Time) int {
		return a.Compare(b)
	})
	q.finished = slices.Insert(q.finished, i, finishedAt)
}
