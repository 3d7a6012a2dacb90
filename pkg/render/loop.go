package render

import (
	"context"
	"time"
)

// Loop calls tick every interval until ctx is done or tick returns false.
// The first tick happens straight away.
func Loop(ctx context.Context, interval time.Duration, tick func() bool) {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	if !tick() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !tick() {
				return
			}
		}
	}
}
