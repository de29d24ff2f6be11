// Package workerpool runs tasks on a fixed set of goroutines, joins them, and
// collects their errors. Panicking tasks are recovered and reported as
// errors so one bad task cannot take the process down.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Task is the unit of work submitted to the pool.
type Task func(ctx context.Context) error

// Config holds pool construction parameters.
type Config struct {
	// Workers is the number of goroutines that run tasks concurrently.
	Workers int

	// QueueSize is the capacity of the internal task channel. A value of 0
	// makes Submit block until a worker is free.
	QueueSize int

	// Logger is used for progress output. If nil, log.Default() is used.
	Logger *log.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.QueueSize < 0 {
		out.QueueSize = 0
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	return out
}

// Metrics is a snapshot of pool counters.
type Metrics struct {
	Submitted int64 // tasks accepted by Submit
	Started   int64 // tasks a worker picked up
	Succeeded int64 // tasks that returned nil
	Failed    int64 // tasks that returned an error or panicked
	Dropped   int64 // tasks rejected by Submit
}

// Pool is a fixed-size worker pool.
//
//	pool := workerpool.New(cfg)
//	pool.Submit(ctx, task)
//	err := pool.Wait() // stop accepting, drain, join
type Pool struct {
	cfg   Config
	tasks chan Task
	wg    sync.WaitGroup
	ctx   context.Context

	submitted, started, succeeded, failed, dropped atomic.Int64

	mu   sync.Mutex // guards errs
	errs []error

	// closeMu serialises Submit's send with Wait's close(tasks).
	closeMu sync.RWMutex
	closed  bool

	once    sync.Once
	waitErr error
}

// New creates a Pool and starts its workers.
func New(cfg Config) *Pool {
	cfg = cfg.withDefaults()

	p := &Pool{
		cfg:   cfg,
		tasks: make(chan Task, cfg.QueueSize),
		ctx:   context.Background(),
	}

	p.cfg.Logger.Printf("[pool] starting %d workers (queue=%d)", cfg.Workers, cfg.QueueSize)

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}

	return p
}

// Submit enqueues a task. It returns ErrPoolClosed once Wait has been called.
// If the queue is full Submit blocks, respecting the caller's context.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		p.submitted.Add(1)
		return nil
	case <-ctx.Done():
		p.dropped.Add(1)
		return fmt.Errorf("submit cancelled: %w", ctx.Err())
	}
}

// Wait stops the pool from accepting tasks, lets the workers drain the
// queue, and blocks until every worker has exited. It returns every task
// error joined together. Calling Wait again returns the same result.
func (p *Pool) Wait() error {
	p.once.Do(func() {
		p.closeMu.Lock()
		p.closed = true
		close(p.tasks)
		p.closeMu.Unlock()

		p.wg.Wait()

		p.mu.Lock()
		p.waitErr = errors.Join(p.errs...)
		p.mu.Unlock()

		m := p.Metrics()
		p.cfg.Logger.Printf("[pool] drained: started=%d succeeded=%d failed=%d",
			m.Started, m.Succeeded, m.Failed)
	})
	return p.waitErr
}

// Metrics returns a snapshot of pool counters. Fields are read one by one
// and may not be mutually consistent while tasks are running.
func (p *Pool) Metrics() Metrics {
	return Metrics{
		Submitted: p.submitted.Load(),
		Started:   p.started.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.started.Add(1)

		if err := p.run(task); err != nil {
			p.failed.Add(1)
			p.cfg.Logger.Printf("[worker %d] task failed: %v", id, err)

			p.mu.Lock()
			p.errs = append(p.errs, fmt.Errorf("worker %d: %w", id, err))
			p.mu.Unlock()
			continue
		}
		p.succeeded.Add(1)
	}
}

// run calls task and turns a panic into an error.
func (p *Pool) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return task(p.ctx)
}

// Sentinel errors returned by the pool.
var (
	ErrPoolClosed   = errors.New("worker pool is closed")
	ErrTaskPanicked = errors.New("task panicked")
)
