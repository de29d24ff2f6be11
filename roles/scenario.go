package roles

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcodamonte/concurrency/gate"
)

// ErrInvalidConfig is returned for a non-positive permit capacity.
var ErrInvalidConfig = errors.New("invalid scenario config")

// Config holds the parameters of one gated scenario.
type Config struct {
	// Initial is the SharedCount value before either role starts.
	Initial int

	// Permits is the gate capacity. Defaults to 1.
	Permits int

	// Gate overrides the gate built from Permits. Nil means gate.New(Permits).
	Gate gate.Permits

	// Logger is used for progress output. If nil, log.Default() is used.
	Logger *log.Logger

	// Observe is passed through to both runners.
	Observe func(name string, value int)
}

func (c *Config) withDefaults() (Config, error) {
	out := *c
	if out.Permits < 0 {
		return out, fmt.Errorf("%w: permits=%d", ErrInvalidConfig, out.Permits)
	}
	if out.Permits == 0 {
		out.Permits = 1
	}
	if out.Gate == nil {
		out.Gate = gate.New(out.Permits)
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	return out, nil
}

// Report is what a scenario leaves behind. Elapsed is for reporting only.
type Report struct {
	Initial  int
	Final    int
	Outcomes []Outcome
	Elapsed  time.Duration
}

// Scenario starts Incrementor "A" and Decrementor "B" concurrently on one
// SharedCount behind one gate and waits for both before reading the final
// count. Runner failures are reported in Report.Outcomes, never as an error.
func Scenario(ctx context.Context, cfg Config) (Report, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return Report{}, err
	}

	count := &SharedCount{Value: cfg.Initial}
	runners := []*Runner{Incrementor("A"), Decrementor("B")}
	opts := Options{Logger: cfg.Logger, Observe: cfg.Observe}

	rep := Report{Initial: cfg.Initial, Outcomes: make([]Outcome, len(runners))}

	// Plain Group, not WithContext: one runner failing must not cancel the other.
	var g errgroup.Group
	start := time.Now()
	for i, r := range runners {
		i, r := i, r
		g.Go(func() error {
			rep.Outcomes[i] = r.Run(ctx, count, cfg.Gate, opts)
			return nil
		})
	}
	_ = g.Wait()

	rep.Elapsed = time.Since(start)
	rep.Final = count.Value

	cfg.Logger.Printf("[scenario] initial=%d final=%d took=%s", rep.Initial, rep.Final, rep.Elapsed)
	return rep, nil
}
