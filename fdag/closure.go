package fdag

import "fmt"

// UpstreamClosure computes the set of stages transitively required to
// compute target, target inclusive, by breadth-first traversal of the
// Upstream edges. Returns ErrUnknownStage if any visited key (the target
// included) is not registered.
func (g *Graph) UpstreamClosure(target Key) (map[Key]struct{}, error) {
	closure := map[Key]struct{}{target: {}}
	frontier := []Key{target}

	for len(frontier) > 0 {
		curr := frontier[0]
		frontier = frontier[1:]

		upstream, ok := g.Upstream[curr]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStage, curr)
		}
		for _, u := range upstream {
			if _, seen := closure[u]; !seen {
				closure[u] = struct{}{}
				frontier = append(frontier, u)
			}
		}
	}
	return closure, nil
}
