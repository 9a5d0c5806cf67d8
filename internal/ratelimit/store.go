// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"time"
)

// Hit is the state of a key's window after one more request was counted.
type Hit struct {
	Count   int
	ResetAt time.Time
}

// RetryAfter is how long until the window resets, rounded up to whole seconds.
func (h Hit) RetryAfter(now time.Time) int {
	d := h.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// Store increments the counter for key, starting a new window of the given length
// when none is open. Implementations must be safe for concurrent use.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (Hit, error)
}
