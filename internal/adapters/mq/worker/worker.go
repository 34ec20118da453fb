// Package worker drains the sync request queue one run at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/pkg/logger"
	"github.com/okian/luma-sync/pkg/metrics"
)

// Queue defines how the worker receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.SyncRequest
}

// Runner executes one calendar sync.
type Runner interface {
	SyncCalendar(ctx context.Context, calendarID string) (model.SyncRunResult, error)
}

// Worker runs queued requests sequentially, so asynchronous runs never
// overlap each other.
type Worker struct {
	queue    Queue
	runner   Runner
	name     string
	onResult func(model.SyncRunResult, error)

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a worker reading from queue.
func New(queue Queue, runner Runner, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes requests until the queue closes, ctx is done or Shutdown
// is called. It blocks; start it in its own goroutine.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			w.process(ctx, r)
		}
	}
}

// Shutdown stops the loop after the current run and waits for it.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) process(ctx context.Context, r model.SyncRequest) {
	metrics.SetWorkerBusy(true)
	defer metrics.SetWorkerBusy(false)

	start := time.Now()
	res, err := w.runner.SyncCalendar(ctx, r.CalendarID)
	if err != nil {
		w.logger.Error(ctx, "queued sync failed",
			logger.String("calendar", r.CalendarID),
			logger.Duration("waited", start.Sub(r.RequestedAt)),
			logger.Error(err),
		)
	} else {
		w.logger.Info(ctx, "queued sync finished",
			logger.String("calendar", r.CalendarID),
			logger.Int("created", res.Created),
			logger.Int("updated", res.Updated),
			logger.Duration("took", time.Since(start)),
		)
	}
	if w.onResult != nil {
		w.onResult(res, err)
	}
}
