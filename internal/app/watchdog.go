package app

import (
	"context"
	"sync"
	"time"

	"github.com/Amund211/fetchcache/internal/logging"
)

// StartWatchdog logs a debug heartbeat every interval while pending reports outstanding work.
//
// The heartbeat stops when ctx ends or stop is called. stop blocks until the watchdog has exited.
func StartWatchdog(ctx context.Context, logger logging.Logger, interval time.Duration, pending func() int) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		beats := 0
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				remaining := pending()
				if remaining <= 0 {
					continue
				}
				beats++
				logger.Debug(ctx, "Heartbeat", logging.Fields{
					"beat":    beats,
					"pending": remaining,
				})
			}
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
		})
		wg.Wait()
	}
}
