// Package inflight tracks which calendars currently have a sync running.
package inflight

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Guard admits at most one holder per key at a time.
type Guard interface {
	// Acquire records id as running. It returns false when id is already
	// held, in which case the caller must not proceed.
	Acquire(ctx context.Context, id string) bool

	// Release drops id so the next Acquire succeeds.
	Release(ctx context.Context, id string)

	// Active lists held ids in lexical order.
	Active() []string

	Size() int64
}

type inMemoryGuard struct {
	mu   sync.Mutex
	held map[string]time.Time
	size atomic.Int64
	now  func() time.Time
}

// NewInMemoryGuard creates a process-local Guard.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		held: make(map[string]time.Time),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *inMemoryGuard) Acquire(ctx context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.held[id]; exists {
		return false
	}
	g.held[id] = g.now()
	g.size.Add(1)
	return true
}

func (g *inMemoryGuard) Release(ctx context.Context, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.held[id]; exists {
		delete(g.held, id)
		g.size.Add(-1)
	}
}

func (g *inMemoryGuard) Active() []string {
	g.mu.Lock()
	out := make([]string, 0, len(g.held))
	for id := range g.held {
		out = append(out, id)
	}
	g.mu.Unlock()
	sort.Strings(out)
	return out
}

func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
