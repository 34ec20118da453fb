package inflight

import "time"

// Option applies a configuration option to the in-memory Guard.
type Option func(*inMemoryGuard)

// WithClock overrides the clock used to stamp acquisitions.
func WithClock(now func() time.Time) Option {
	return func(g *inMemoryGuard) {
		if now != nil {
			g.now = now
		}
	}
}
