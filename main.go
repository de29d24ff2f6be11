package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/marcodamonte/concurrency/counter"
	"github.com/marcodamonte/concurrency/race"
	"github.com/marcodamonte/concurrency/roles"
)

func main() {
	var (
		workers = flag.Int("workers", 2, "concurrent workers per counter race")
		iters   = flag.Int("iters", 1_000_000, "increments per worker")
		kinds   = flag.String("kinds", "", "comma-separated counter kinds (default: all)")
		timeout = flag.Duration("timeout", time.Minute, "overall deadline")
		verbose = flag.Bool("v", false, "log worker pool progress")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
	quiet := log.New(io.Discard, "", 0)
	progress := quiet
	if *verbose {
		progress = logger
	}

	// Ctrl+C or the deadline stops scenarios that are still waiting to start.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	section("Two goroutines, interleaved")
	var mu sync.Mutex
	race.Interleave(2, 10, func(w, step int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Printf("  T%d: %d\n", w+1, step)
	})

	selected, err := parseKinds(*kinds)
	if err != nil {
		logger.Fatalf("[main] %v", err)
	}

	for _, k := range selected {
		section(fmt.Sprintf("Counter race — %s", k))

		c, err := counter.New(k)
		if err != nil {
			logger.Fatalf("[main] %v", err)
		}
		res, err := race.Run(ctx, c, race.Config{
			Workers:    *workers,
			Iterations: *iters,
			Logger:     progress,
		})
		if err != nil {
			logger.Printf("[main] race %s failed: %v", k, err)
			continue
		}

		mark := "✓"
		if res.Lost() != 0 {
			mark = "✗"
		}
		fmt.Printf("  expected: %d  got: %d  lost updates: %d  time: %s  %s\n",
			res.Expected, res.Final, res.Lost(), res.Elapsed.Round(time.Microsecond), mark)
	}

	section("Semaphore — incrementor vs decrementor")
	rep, err := roles.Scenario(ctx, roles.Config{Logger: logger})
	if err != nil {
		logger.Fatalf("[main] %v", err)
	}
	for _, o := range rep.Outcomes {
		if o.Err != nil {
			fmt.Printf("  %s: failed after %d steps: %v\n", o.Name, o.Steps, o.Err)
		}
	}
	fmt.Printf("  initial: %d  final: %d  time: %s\n", rep.Initial, rep.Final, rep.Elapsed)
}

func parseKinds(s string) ([]counter.Kind, error) {
	if s == "" {
		return counter.Kinds(), nil
	}
	var out []counter.Kind
	for _, name := range strings.Split(s, ",") {
		k := counter.Kind(strings.TrimSpace(name))
		if _, err := counter.New(k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func section(title string) {
	fmt.Printf("\n━━━ %s ━━━\n", title)
}
