// Package queue holds pending asynchronous sync requests.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/pkg/metrics"
)

const defaultQueueCapacity = 64

// Request is the payload flowing through the queue.
type Request = model.SyncRequest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds r without blocking. It returns ErrFull when the queue is
	// at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, r Request) error

	// Dequeue returns a channel of requests. The channel is closed when the
	// queue is closed and drained or ctx is done.
	Dequeue(ctx context.Context) <-chan Request

	// Len returns the number of pending requests.
	Len(ctx context.Context) int

	// Close stops accepting requests.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return fmt.Errorf("enqueue %s: %w", r.CalendarID, err)
	}

	select {
	case q.requests <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.requests))
		return nil
	default:
		metrics.RecordQueueEnqueueError("full")
		return fmt.Errorf("enqueue %s: %w", r.CalendarID, ErrFull)
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Request {
	out := make(chan Request)
	go func() {
		defer close(out)
		for r := range q.requests {
			select {
			case out <- r:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.requests))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.requests)
}

// Close implements Queue. Pending requests stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
