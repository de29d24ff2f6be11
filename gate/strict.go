package gate

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Strict is a Permits backed by semaphore.Weighted. Unlike Gate, releasing a
// permit that was never acquired panics instead of growing capacity.
type Strict struct {
	sem *semaphore.Weighted
}

// NewStrict returns a Strict holding n permits.
func NewStrict(n int) *Strict {
	return &Strict{sem: semaphore.NewWeighted(int64(n))}
}

func (s *Strict) Acquire(ctx context.Context) error { return s.sem.Acquire(ctx, 1) }

func (s *Strict) TryAcquire() bool { return s.sem.TryAcquire(1) }

// Release panics if no permit is held.
func (s *Strict) Release() { s.sem.Release(1) }
