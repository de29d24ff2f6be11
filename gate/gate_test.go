package gate_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcodamonte/concurrency/gate"
)

// ── Acquire / Release ────────────────────────────────────────────────────────

func TestAcquireImmediate(t *testing.T) {
	t.Parallel()

	g := gate.New(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got := g.Available(); got != 0 {
		t.Errorf("Available() = %d; want 0", got)
	}
	g.Release()
	if got := g.Available(); got != 1 {
		t.Errorf("Available() = %d; want 1", got)
	}
}

// TestAcquireBlocksUntilRelease verifies a second Acquire waits for Release.
func TestAcquireBlocksUntilRelease(t *testing.T) {
	t.Parallel()

	g := gate.New(1)
	_ = g.Acquire(context.Background())

	acquired := make(chan struct{})
	go func() {
		_ = g.Acquire(context.Background())
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire returned while the permit was held")
	case <-time.After(30 * time.Millisecond):
	}

	g.Release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not woken by Release")
	}
	if got := g.Available(); got != 0 {
		t.Errorf("Available() = %d; want 0 (permit handed to waiter)", got)
	}
}

// TestAtMostOneHolder hammers a single-permit gate and records the peak
// number of goroutines inside the critical section.
func TestAtMostOneHolder(t *testing.T) {
	t.Parallel()

	g := gate.New(1)

	var (
		inside, peak atomic.Int64
		wg           sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if err := g.Acquire(context.Background()); err != nil {
					t.Errorf("Acquire: %v", err)
					return
				}
				cur := inside.Add(1)
				for {
					prev := peak.Load()
					if cur <= prev || peak.CompareAndSwap(prev, cur) {
						break
					}
				}
				inside.Add(-1)
				g.Release()
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got != 1 {
		t.Errorf("peak holders = %d; want 1", got)
	}
	if got := g.Available(); got != 1 {
		t.Errorf("Available() = %d; want 1", got)
	}
}

// TestWaitersAdmittedInOrder checks the queue hands out permits FIFO.
func TestWaitersAdmittedInOrder(t *testing.T) {
	t.Parallel()

	g := gate.New(1)
	_ = g.Acquire(context.Background())

	const n = 5
	order := make(chan int, n)
	for i := 0; i < n; i++ {
		id := i
		queued := make(chan struct{})
		go func() {
			close(queued)
			_ = g.Acquire(context.Background())
			order <- id
			g.Release()
		}()
		<-queued
		// Let the goroutine park in Acquire before starting the next one.
		time.Sleep(10 * time.Millisecond)
	}

	g.Release()
	for want := 0; want < n; want++ {
		if got := <-order; got != want {
			t.Fatalf("admission %d went to waiter %d", want, got)
		}
	}
}

// ── Cancellation ─────────────────────────────────────────────────────────────

// TestAcquireCancelled verifies a cancelled wait returns ctx.Err() and does
// not change the permit count.
func TestAcquireCancelled(t *testing.T) {
	t.Parallel()

	g := gate.New(1)
	_ = g.Acquire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := g.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire() error = %v; want DeadlineExceeded", err)
	}
	if got := g.Available(); got != 0 {
		t.Errorf("Available() = %d after cancelled wait; want 0", got)
	}

	g.Release()
	if got := g.Available(); got != 1 {
		t.Errorf("Available() = %d; want 1 (no phantom permit, no stuck waiter)", got)
	}
	if !g.TryAcquire() {
		t.Error("TryAcquire failed on a free gate")
	}
}

func TestAcquireAlreadyCancelled(t *testing.T) {
	t.Parallel()

	g := gate.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v; want Canceled", err)
	}
}

// TestCancellationStress races cancellations against releases and checks
// that no permit leaks either way.
func TestCancellationStress(t *testing.T) {
	t.Parallel()

	g := gate.New(1)
	var (
		wg  sync.WaitGroup
		got atomic.Int64
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(i%3)*time.Microsecond)
				if err := g.Acquire(ctx); err == nil {
					got.Add(1)
					g.Release()
				}
				cancel()
			}
		}(i)
	}
	wg.Wait()

	if avail := g.Available(); avail != 1 {
		t.Errorf("Available() = %d after stress; want 1 (acquired %d times)", avail, got.Load())
	}
}

// ── Raw semaphore semantics ──────────────────────────────────────────────────

// TestUnmatchedReleaseInflates documents the sharp edge: Release without
// Acquire adds a permit.
func TestUnmatchedReleaseInflates(t *testing.T) {
	t.Parallel()

	g := gate.New(1)
	g.Release()
	if got := g.Available(); got != 2 {
		t.Errorf("Available() = %d; want 2", got)
	}
	if !g.TryAcquire() || !g.TryAcquire() {
		t.Error("expected two permits after an unmatched Release")
	}
	if g.TryAcquire() {
		t.Error("third TryAcquire succeeded on an exhausted gate")
	}
}

func TestZeroValueGate(t *testing.T) {
	t.Parallel()

	var g gate.Gate
	if g.TryAcquire() {
		t.Fatal("zero Gate should hold no permits")
	}
	g.Release()
	if !g.TryAcquire() {
		t.Error("TryAcquire failed after Release on zero Gate")
	}
}

// ── Strict ───────────────────────────────────────────────────────────────────

func TestStrictPanicsOnUnmatchedRelease(t *testing.T) {
	t.Parallel()

	s := gate.NewStrict(1)
	defer func() {
		if r := recover(); r == nil {
			t.Error("Release without Acquire should panic")
		}
	}()
	s.Release()
}

func TestStrictAcquireCancelled(t *testing.T) {
	t.Parallel()

	s := gate.NewStrict(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire() error = %v; want DeadlineExceeded", err)
	}

	s.Release()
	if !s.TryAcquire() {
		t.Error("permit leaked by cancelled Acquire")
	}
}

var (
	_ gate.Permits = (*gate.Gate)(nil)
	_ gate.Permits = (*gate.Strict)(nil)
)
