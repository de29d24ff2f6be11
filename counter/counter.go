// Package counter provides counters that differ only in how they synchronize
// concurrent increments.
//
// counter++ is NOT atomic. It compiles to three instructions:
//
//	LOAD  n → reg
//	ADD   reg, 1
//	STORE reg → n
//
// When two goroutines interleave between LOAD and STORE, one increment is
// lost. Every variant except Unsync rules that out.
package counter

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Counter is the capability shared by every variant.
type Counter interface {
	// Increment makes exactly one addition of 1 visible to later reads.
	Increment()
	// Read returns the current value.
	Read() int64
}

// Unsync has no synchronization at all. Concurrent increments race and
// updates are lost; run with -race to have the detector flag it.
type Unsync struct {
	n int64
}

func (c *Unsync) Increment() { c.n++ } // DATA RACE under concurrent use

func (c *Unsync) Read() int64 { return c.n }

// MethodLocked holds its mutex for the whole Increment call.
type MethodLocked struct {
	mu sync.Mutex
	n  int64
}

func (c *MethodLocked) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.n++
}

func (c *MethodLocked) Read() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// BlockLocked locks only around the increment statement.
type BlockLocked struct {
	mu sync.Mutex
	n  int64
}

func (c *BlockLocked) Increment() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *BlockLocked) Read() int64 {
	c.mu.Lock()
	n := c.n
	c.mu.Unlock()
	return n
}

// Mutex acquires its lock explicitly and releases it in a deferred call, so
// the lock is free again even when the mutation panics.
type Mutex struct {
	mu sync.Mutex
	n  int64

	// step performs the mutation; nil means n++.
	step func(n *int64)
}

func (c *Mutex) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock() // runs on every return path, panics included

	if c.step != nil {
		c.step(&c.n)
		return
	}
	c.n++
}

func (c *Mutex) Read() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Atomic uses a single fetch-and-add. No goroutine ever waits on another.
type Atomic struct {
	n atomic.Int64
}

func (c *Atomic) Increment() { c.n.Add(1) }

func (c *Atomic) Read() int64 { return c.n.Load() }

// CAS increments with an optimistic compare-and-swap loop: read, compute,
// and retry if another goroutine won the race in between.
type CAS struct {
	n atomic.Int64
}

func (c *CAS) Increment() {
	for {
		old := c.n.Load()
		if c.n.CompareAndSwap(old, old+1) {
			return
		}
	}
}

func (c *CAS) Read() int64 { return c.n.Load() }

// Kind names a counter variant.
type Kind string

const (
	KindUnsync Kind = "unsync"
	KindMethod Kind = "method"
	KindBlock  Kind = "block"
	KindMutex  Kind = "mutex"
	KindAtomic Kind = "atomic"
	KindCAS    Kind = "cas"
)

var kinds = []Kind{KindUnsync, KindMethod, KindBlock, KindMutex, KindAtomic, KindCAS}

// Kinds returns every known variant, unsynchronized first.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Synchronized reports whether k guarantees no lost updates.
func Synchronized(k Kind) bool {
	return k != KindUnsync
}

// New returns a zero counter of the given kind.
func New(k Kind) (Counter, error) {
	switch k {
	case KindUnsync:
		return &Unsync{}, nil
	case KindMethod:
		return &MethodLocked{}, nil
	case KindBlock:
		return &BlockLocked{}, nil
	case KindMutex:
		return &Mutex{}, nil
	case KindAtomic:
		return &Atomic{}, nil
	case KindCAS:
		return &CAS{}, nil
	default:
		return nil, fmt.Errorf("counter kind %q: %w", k, ErrUnknownKind)
	}
}
