package fdag

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
)

// Validation limits to prevent pathological cases
const (
	MaxStages = 10000
)

// Validate audits the structural invariants the builder is supposed to
// maintain. Construction keeps these invariants by itself; Validate exists
// for tests and for debugging, and reports every violation at once rather
// than stopping at the first. A graph with more than MaxStages stages is
// rejected with a single error and not checked further.
//
// Checked invariants:
//   - Nodes, Downstream, Upstream and InDegree share exactly the same key set
//   - k ∈ Downstream[u] ⇔ u ∈ Upstream[k], multiplicity preserved
//   - InDegree[k] == len(Upstream[k]) for every key
//   - the graph is acyclic (Kahn's algorithm)
func (g *Graph) Validate() error {
	var err error

	if len(g.Nodes) > MaxStages {
		return fmt.Errorf("graph has %d stages, exceeds maximum %d", len(g.Nodes), MaxStages)
	}

	err = multierr.Append(err, g.validateKeySets())
	err = multierr.Append(err, g.validateEdges())
	err = multierr.Append(err, g.validateInDegrees())
	err = multierr.Append(err, g.validateAcyclic())
	return err
}

func (g *Graph) validateKeySets() error {
	var err error
	for _, k := range sortedKeys(g.Nodes) {
		if _, ok := g.Downstream[k]; !ok {
			err = multierr.Append(err, fmt.Errorf("stage %s missing from downstream map", k))
		}
		if _, ok := g.Upstream[k]; !ok {
			err = multierr.Append(err, fmt.Errorf("stage %s missing from upstream map", k))
		}
		if _, ok := g.InDegree[k]; !ok {
			err = multierr.Append(err, fmt.Errorf("stage %s missing from in-degree map", k))
		}
	}
	for _, k := range sortedKeys(g.Downstream) {
		if !g.Contains(k) {
			err = multierr.Append(err, fmt.Errorf("downstream map has unregistered stage %s", k))
		}
	}
	for _, k := range sortedKeys(g.Upstream) {
		if !g.Contains(k) {
			err = multierr.Append(err, fmt.Errorf("upstream map has unregistered stage %s", k))
		}
	}
	for _, k := range sortedKeys(g.InDegree) {
		if !g.Contains(k) {
			err = multierr.Append(err, fmt.Errorf("in-degree map has unregistered stage %s", k))
		}
	}
	return err
}

func (g *Graph) validateEdges() error {
	var err error
	for _, k := range sortedKeys(g.Upstream) {
		for _, u := range g.Upstream[k] {
			if edgeCount(g.Upstream[k], u) != edgeCount(g.Downstream[u], k) {
				err = multierr.Append(err, fmt.Errorf(
					"edge %s -> %s: upstream and downstream multiplicities differ", u, k))
			}
		}
	}
	for _, u := range sortedKeys(g.Downstream) {
		for _, k := range g.Downstream[u] {
			if edgeCount(g.Upstream[k], u) == 0 {
				err = multierr.Append(err, fmt.Errorf(
					"edge %s -> %s present downstream but missing upstream", u, k))
			}
		}
	}
	return err
}

func (g *Graph) validateInDegrees() error {
	var err error
	for _, k := range sortedKeys(g.InDegree) {
		if g.InDegree[k] != len(g.Upstream[k]) {
			err = multierr.Append(err, fmt.Errorf(
				"stage %s: in-degree %d but %d upstream edges", k, g.InDegree[k], len(g.Upstream[k])))
		}
	}
	return err
}

// validateAcyclic runs Kahn's algorithm over the whole graph. If the sort
// cannot consume every node, a cycle exists.
func (g *Graph) validateAcyclic() error {
	inDegree := make(map[Key]int, len(g.Nodes))
	for k := range g.Nodes {
		inDegree[k] = len(g.Upstream[k])
	}

	queue := make([]Key, 0, len(g.Nodes))
	for k, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, k)
		}
	}

	processed := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		processed++

		for _, d := range g.Downstream[curr] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if processed != len(g.Nodes) {
		return fmt.Errorf("cycle detected: %d of %d stages unreachable by topological sort",
			len(g.Nodes)-processed, len(g.Nodes))
	}
	return nil
}

func edgeCount(edges []Key, k Key) int {
	n := 0
	for _, e := range edges {
		if e == k {
			n++
		}
	}
	return n
}

// sortedKeys returns map keys in sorted order for deterministic iteration.
func sortedKeys[V any](m map[Key]V) []Key {
	keys := maps.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
