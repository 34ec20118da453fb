package worker

import (
	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/pkg/logger"
)

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithResultHook is called after every run with its result.
func WithResultHook(fn func(model.SyncRunResult, error)) Option {
	return func(w *Worker) {
		w.onResult = fn
	}
}
