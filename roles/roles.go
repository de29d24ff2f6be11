// Package roles runs an Incrementor and a Decrementor against one plain
// integer, using a single-permit gate as the only protection.
package roles

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/marcodamonte/concurrency/gate"
)

// DefaultSteps is how many unit mutations each role performs.
const DefaultSteps = 5

// SharedCount is a plain integer with no synchronization of its own. It is
// only safe while every reader and writer holds the gate's permit.
type SharedCount struct {
	Value int
}

// Runner applies Steps mutations of size Delta to a SharedCount while
// holding a permit.
type Runner struct {
	Name  string
	Delta int
	Steps int
}

// Incrementor returns a runner adding 1 DefaultSteps times.
func Incrementor(name string) *Runner {
	return &Runner{Name: name, Delta: 1, Steps: DefaultSteps}
}

// Decrementor returns a runner subtracting 1 DefaultSteps times.
func Decrementor(name string) *Runner {
	return &Runner{Name: name, Delta: -1, Steps: DefaultSteps}
}

// Options carries the collaborators of a run.
type Options struct {
	// Logger receives the "waiting", per-step and "done" lines. If nil,
	// log.Default() is used.
	Logger *log.Logger

	// Observe, if set, is called with the count read after each step while
	// the permit is held.
	Observe func(name string, value int)
}

// Outcome is how a single run ended. Err is nil on success.
type Outcome struct {
	Name  string
	Steps int // mutations actually applied
	Err   error
}

// ErrRunnerPanicked wraps a panic recovered inside a run.
var ErrRunnerPanicked = errors.New("runner panicked")

// Run acquires a permit, applies the mutations and releases the permit.
//
// Failures are never propagated: a cancelled Acquire or a panic during the
// loop is logged and recorded in the returned Outcome. The permit is released
// on every path once it has been acquired.
func (r *Runner) Run(ctx context.Context, count *SharedCount, permits gate.Permits, opts Options) (out Outcome) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	out.Name = r.Name

	defer func() {
		if p := recover(); p != nil {
			out.Err = fmt.Errorf("%s: %w: %v", r.Name, ErrRunnerPanicked, p)
		}
		if out.Err != nil {
			logger.Printf("[%s] %v", r.Name, out.Err)
		}
	}()

	logger.Printf("[%s] waiting for permit", r.Name)
	if err := permits.Acquire(ctx); err != nil {
		out.Err = fmt.Errorf("%s: acquire: %w", r.Name, err)
		return out
	}
	defer permits.Release()

	for i := 0; i < r.Steps; i++ {
		count.Value += r.Delta
		out.Steps++

		v := count.Value
		logger.Printf("[%s] count is %d", r.Name, v)
		if opts.Observe != nil {
			opts.Observe(r.Name, v)
		}
	}
	logger.Printf("[%s] done", r.Name)
	return out
}
