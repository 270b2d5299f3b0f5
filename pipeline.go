package flowz

import (
	"sort"

	"github.com/birdayz/flowz/fdag"
	"github.com/birdayz/flowz/fstate"
	"github.com/go-logr/logr"
)

// Pipeline is a buildable, repeatedly runnable dataflow graph.
//
// IMPORTANT: construction (AddSource, AddStage, Join) is NOT safe for
// concurrent use; register all stages from a single goroutine. Run is the
// only concurrent surface, and a Pipeline must not be mutated while a run
// is in flight.
type Pipeline struct {
	graph *fdag.Graph
	store *fstate.Store
	log   logr.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogr sets the logger used by the scheduler. The default discards all
// output.
func WithLogr(log logr.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// New constructs an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		graph: fdag.NewGraph(),
		store: fstate.NewStore(),
		log:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Graph returns the underlying graph for read-only access.
// Do not modify it directly; use the registration functions.
func (p *Pipeline) Graph() *fdag.Graph {
	return p.graph
}

// Store returns the result store. Intended for tests and tooling; results
// are only meaningful between a successful Run and the next one.
func (p *Pipeline) Store() *fstate.Store {
	return p.store
}

// Stages returns the keys of all registered stages, sorted.
func (p *Pipeline) Stages() []fdag.Key {
	keys := append([]fdag.Key(nil), p.graph.Order...)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
