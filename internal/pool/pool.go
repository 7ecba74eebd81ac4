// Package pool provides a bounded-concurrency task abstraction for blocking
// model calls. Pools are shared across all sessions; the per-task limit keeps
// inference and synthesis off the connection-handling goroutines without
// unbounded goroutine growth.
package pool

import (
	"context"
	"fmt"
	"time"
)

// Pool bounds the number of tasks running concurrently
type Pool struct {
	name    string
	slots   chan struct{}
	timeout time.Duration
}

// New creates a pool running at most size tasks at once. timeout bounds each
// task's execution; zero disables the per-task deadline.
func New(name string, size int, timeout time.Duration) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		name:    name,
		slots:   make(chan struct{}, size),
		timeout: timeout,
	}
}

// Do acquires a slot and runs fn, passing it a context bounded by the pool's
// per-task timeout. Acquisition blocks until a slot frees or ctx is done.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%s pool: waiting for slot: %w", p.name, ctx.Err())
	}
	defer func() { <-p.slots }()

	taskCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return fn(taskCtx)
}

// Size returns the pool's concurrency limit
func (p *Pool) Size() int {
	return cap(p.slots)
}

// InFlight returns the number of tasks currently running
func (p *Pool) InFlight() int {
	return len(p.slots)
}
