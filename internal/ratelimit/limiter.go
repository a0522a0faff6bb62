package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // set when denied
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below 1 for a
// denial.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter counts requests per identifier in fixed windows. Once a window is
// exhausted, callers wait for it to reset; there is no sliding carry-over, so
// a burst of max at the end of one window may be followed by another max
// right after the reset.
type Limiter interface {
	Allow(ctx context.Context, identifier string, max int, window time.Duration) (Decision, error)
}
