// Package race drives a shared counter.Counter from several goroutines at
// once and reports the value it ends up with.
package race

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/marcodamonte/concurrency/counter"
	"github.com/marcodamonte/concurrency/workerpool"
)

// ErrInvalidConfig is returned for negative worker or iteration counts.
var ErrInvalidConfig = errors.New("invalid race config")

// Config holds the tunable parameters of one race.
type Config struct {
	// Workers is the number of concurrent workers. Defaults to 2.
	Workers int

	// Iterations is how many times each worker calls Increment.
	Iterations int

	// Logger is used for progress output. If nil, log.Default() is used.
	Logger *log.Logger
}

func (c *Config) withDefaults() (Config, error) {
	out := *c
	if out.Workers < 0 || out.Iterations < 0 {
		return out, fmt.Errorf("%w: workers=%d iterations=%d", ErrInvalidConfig, out.Workers, out.Iterations)
	}
	if out.Workers == 0 {
		out.Workers = 2
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	return out, nil
}

// Result is what a race leaves behind. Elapsed is for reporting only.
type Result struct {
	Final    int64
	Expected int64
	Elapsed  time.Duration
}

// Lost returns the number of increments that did not survive.
func (r Result) Lost() int64 { return r.Expected - r.Final }

// Run starts cfg.Workers workers against c, each calling c.Increment exactly
// cfg.Iterations times, waits for all of them and reads the final value.
//
// Workers do not coordinate with each other; whatever ordering exists comes
// from the counter itself. ctx only bounds task submission: once started a
// race always runs to completion.
func Run(ctx context.Context, c counter.Counter, cfg Config) (Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return Result{}, err
	}

	res := Result{Expected: int64(cfg.Workers) * int64(cfg.Iterations)}

	// One worker per task and a queue large enough for all of them, so no
	// worker waits on another to be scheduled.
	pool := workerpool.New(workerpool.Config{
		Workers:   cfg.Workers,
		QueueSize: cfg.Workers,
		Logger:    cfg.Logger,
	})

	start := time.Now()
	for i := 0; i < cfg.Workers; i++ {
		if err := pool.Submit(ctx, worker(c, cfg.Iterations)); err != nil {
			_ = pool.Wait()
			return res, fmt.Errorf("race: submit worker %d: %w", i, err)
		}
	}

	err = pool.Wait()
	res.Elapsed = time.Since(start)
	res.Final = c.Read()
	if err != nil {
		return res, fmt.Errorf("race: %w", err)
	}

	cfg.Logger.Printf("[race] %T: workers=%d iterations=%d final=%d expected=%d took=%s",
		c, cfg.Workers, cfg.Iterations, res.Final, res.Expected, res.Elapsed)
	return res, nil
}

// worker returns a task that increments c exactly n times.
func worker(c counter.Counter, n int) workerpool.Task {
	return func(context.Context) error {
		for i := 0; i < n; i++ {
			c.Increment()
		}
		return nil
	}
}

// Interleave starts workers goroutines that each call visit for steps
// 0..steps-1 and waits for all of them. The order visits arrive in is up to
// the scheduler; visit must be safe for concurrent use.
func Interleave(workers, steps int, visit func(worker, step int)) {
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for s := 0; s < steps; s++ {
				visit(id, s)
			}
		}(w)
	}
	wg.Wait()
}
