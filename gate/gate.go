// Package gate provides a counting semaphore whose Acquire can be cancelled.
//
// A Gate with one permit behaves like a mutex that any goroutine may release.
// Release is deliberately unchecked: releasing without a matching Acquire
// adds capacity, as with a raw semaphore. Use NewStrict when that should be
// a programming error instead.
package gate

import (
	"container/list"
	"context"
	"sync"
)

// Permits is the acquire/release contract shared by Gate and Strict.
type Permits interface {
	Acquire(ctx context.Context) error
	Release()
}

// Gate is a counting semaphore. Waiters are admitted in arrival order.
type Gate struct {
	mu      sync.Mutex
	permits int
	waiters list.List // of chan struct{}, closed when the permit is handed over
}

// New returns a Gate holding n free permits.
func New(n int) *Gate {
	return &Gate{permits: n}
}

// Acquire blocks until a permit is free or ctx is done. On cancellation it
// returns ctx.Err() and the gate's permit count is left as it was.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if g.permits > 0 && g.waiters.Len() == 0 {
		g.permits--
		g.mu.Unlock()
		return nil
	}

	// Fail fast on an already cancelled context rather than queueing.
	if err := ctx.Err(); err != nil {
		g.mu.Unlock()
		return err
	}

	ready := make(chan struct{})
	elem := g.waiters.PushBack(ready)
	g.mu.Unlock()

	select {
	case <-ready:
		return nil

	case <-ctx.Done():
		g.mu.Lock()
		defer g.mu.Unlock()

		select {
		case <-ready:
			// Release handed us the permit as ctx fired. Pass it on.
			g.permits++
		default:
			g.waiters.Remove(elem)
		}
		g.notifyLocked()
		return ctx.Err()
	}
}

// TryAcquire takes a permit without blocking and reports whether it did.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.permits > 0 && g.waiters.Len() == 0 {
		g.permits--
		return true
	}
	return false
}

// Release returns a permit and wakes at most one waiter. It never blocks.
func (g *Gate) Release() {
	g.mu.Lock()
	g.permits++
	g.notifyLocked()
	g.mu.Unlock()
}

// Available returns the number of free permits at the time of the call.
func (g *Gate) Available() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.permits
}

// notifyLocked hands free permits to waiters at the front of the queue.
// g.mu must be held.
func (g *Gate) notifyLocked() {
	for g.permits > 0 {
		front := g.waiters.Front()
		if front == nil {
			return
		}
		g.permits--
		g.waiters.Remove(front)
		close(front.Value.(chan struct{}))
	}
}
