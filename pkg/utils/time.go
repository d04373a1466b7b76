package utils

import (
	"context"
	"time"
)

// RunOnInterval the given fn once every interval, starting at the moment the
// function is called.  It stops when ctx is cancelled.
func RunOnInterval(ctx context.Context, fn func(), interval time.Duration) {
	timer := time.NewTicker(interval)

	fn()
	go func() {
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				fn()
			}
		}
	}()
}
