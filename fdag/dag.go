package fdag

import (
	"fmt"
	"reflect"
	"strings"
)

// Key is a strongly-typed identifier for pipeline stages.
// Keys must be non-empty and cannot contain whitespace.
type Key string

// Validate checks if the Key is valid.
// Returns ErrInvalidKey if the key is empty or contains whitespace.
func (k Key) Validate() error {
	if k == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	if strings.ContainsAny(string(k), " \t\n\r") {
		return fmt.Errorf("%w: key %q cannot contain whitespace", ErrInvalidKey, k)
	}
	return nil
}

// RunFunc executes one stage against the shared result store. The typed
// front-end captures the store, the typed input fetches and the user
// computation in this closure, so the graph itself stays fully type-erased.
//
// A RunFunc must return fetch errors (ErrUnknownStage, ErrTypeMismatch)
// unwrapped and wrap user-computation failures in ErrStageFailed.
type RunFunc func() error

// Node is the erased representation of a stage. It carries the type
// signatures recorded at registration time so wiring can be validated
// without generic parameters, plus the closure that actually runs it.
type Node struct {
	Key Key

	// Upstream keys consumed by this stage, in declaration order.
	Upstream []Key

	// InputTypes[i] is the declared type of the value read from Upstream[i].
	InputTypes []reflect.Type

	// OutputType is the declared type of the value this stage publishes.
	OutputType reflect.Type

	Run RunFunc
}

// Graph is the build-time DAG. Four parallel maps share exactly the same
// key set; Downstream and Upstream mirror each other edge for edge,
// preserving multiplicity.
//
// IMPORTANT: Graph is NOT safe for concurrent mutation. All additions must
// happen from a single goroutine. During a run the graph is only read.
type Graph struct {
	Nodes      map[Key]*Node
	Downstream map[Key][]Key
	Upstream   map[Key][]Key
	InDegree   map[Key]int

	// Deterministic stage ordering (insertion order).
	Order []Key
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:      make(map[Key]*Node),
		Downstream: make(map[Key][]Key),
		Upstream:   make(map[Key][]Key),
		InDegree:   make(map[Key]int),
	}
}

// Contains reports whether a stage with the given key is registered.
func (g *Graph) Contains(k Key) bool {
	_, ok := g.Nodes[k]
	return ok
}

// Add registers a node. It either succeeds, or fails leaving the graph
// untouched: every check runs before the first mutation.
//
// Checks, in order:
//  1. the key is valid and not yet registered (ErrStageAlreadyExists),
//  2. every upstream key is registered (ErrUnknownStage),
//  3. every declared input type equals its producer's output type
//     (ErrTypeMismatch).
//
// The graph stays acyclic by construction: a node can only depend on nodes
// that already exist, and its own key is not visible until Add returns.
func (g *Graph) Add(n *Node) error {
	if err := n.Key.Validate(); err != nil {
		return err
	}
	if g.Contains(n.Key) {
		return fmt.Errorf("%w: %s", ErrStageAlreadyExists, n.Key)
	}
	if len(n.InputTypes) != len(n.Upstream) {
		return fmt.Errorf("%w: stage %s declares %d input types for %d upstreams",
			ErrTypeMismatch, n.Key, len(n.InputTypes), len(n.Upstream))
	}
	for i, u := range n.Upstream {
		producer, ok := g.Nodes[u]
		if !ok {
			return fmt.Errorf("%w: %s (upstream of %s)", ErrUnknownStage, u, n.Key)
		}
		if producer.OutputType != n.InputTypes[i] {
			return fmt.Errorf("%w: %s produces %v but %s expects %v at input %d",
				ErrTypeMismatch, u, producer.OutputType, n.Key, n.InputTypes[i], i)
		}
	}

	g.Nodes[n.Key] = n
	upstream := make([]Key, len(n.Upstream))
	copy(upstream, n.Upstream)
	g.Upstream[n.Key] = upstream
	g.Downstream[n.Key] = []Key{}
	g.InDegree[n.Key] = len(n.Upstream)
	g.Order = append(g.Order, n.Key)
	for _, u := range n.Upstream {
		g.Downstream[u] = append(g.Downstream[u], n.Key)
	}
	return nil
}

// Len returns the number of registered stages.
func (g *Graph) Len() int {
	return len(g.Nodes)
}
