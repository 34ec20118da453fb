package repository

import "time"

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

func defaultOptions() options {
	return options{now: time.Now}
}

// WithClock overrides the clock used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
