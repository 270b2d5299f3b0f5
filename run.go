package flowz

import (
	"github.com/birdayz/flowz/fstate"
	"github.com/birdayz/flowz/internal/execution"
)

// RunOption configures a single run.
type RunOption func(*runConfig)

type runConfig struct {
	workers int
}

// WithWorkers sets the worker count for a run. The count must be between 1
// and the hardware parallelism reported by runtime.NumCPU; anything else is
// rejected with ErrInvalidWorkerCount. The default is 1.
func WithWorkers(n int) RunOption {
	return func(c *runConfig) {
		c.workers = n
	}
}

// Run executes the upstream closure of port and returns its typed value.
//
// The result store is cleared first, so each run starts from empty
// intermediate state; the graph itself is reusable across runs. On the
// first stage failure the run fails fast: pending stages are not started,
// in-flight stages complete, and the first error is returned.
func Run[T any](p *Pipeline, port Port[T], opts ...RunOption) (T, error) {
	cfg := runConfig{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	var zero T
	sched := execution.New(p.graph, p.store, p.log)
	if err := sched.Execute(port.key, cfg.workers); err != nil {
		return zero, err
	}
	return fstate.Get[T](p.store, port.key)
}

// MustRun is like Run but panics on error.
func MustRun[T any](p *Pipeline, port Port[T], opts ...RunOption) T {
	return must1(Run(p, port, opts...))
}
