package dependencies

// Graph is a directed dependency graph keyed by extension id. Edges
// point from a dependent extension to each of its required
// dependencies. Graph is not safe for concurrent use; the registry
// guards it with its own lock.
type Graph struct {
	edges map[string][]string
}

// NewGraph creates an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{
		edges: make(map[string][]string),
	}
}

// AddNode adds an extension and its required dependency edges,
// replacing any edges recorded for a previous registration of the
// same id.
func (g *Graph) AddNode(id string, deps []string) {
	edges := make([]string, len(deps))
	copy(edges, deps)
	g.edges[id] = edges
}

// RemoveNode removes an extension from the graph. Edges pointing at
// the removed id are kept; a dangling edge surfaces as a missing
// dependency at activation time.
func (g *Graph) RemoveNode(id string) {
	delete(g.edges, id)
}

// Has reports whether the id is present in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.edges[id]
	return ok
}

// Dependencies returns the direct required dependencies of id.
func (g *Graph) Dependencies(id string) []string {
	deps := g.edges[id]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Dependents returns the ids that directly depend on id.
func (g *Graph) Dependents(id string) []string {
	var dependents []string
	for node, edges := range g.edges {
		for _, edge := range edges {
			if edge == id {
				dependents = append(dependents, node)
				break
			}
		}
	}
	return dependents
}

// TransitiveDependencies returns every dependency reachable from id,
// in depth-first discovery order.
func (g *Graph) TransitiveDependencies(id string) []string {
	visited := make(map[string]bool)
	result := make([]string, 0)

	var traverse func(string)
	traverse = func(node string) {
		for _, dep := range g.edges[node] {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			result = append(result, dep)
			traverse(dep)
		}
	}

	traverse(id)
	return result
}

// DetectCycle searches the subgraph reachable from ids for a cycle.
// It returns the cycle as the path from the repeated id back to
// itself (e.g. ["ext-1", "ext-2", "ext-1"]) and true when one exists.
func (g *Graph) DetectCycle(ids []string) ([]string, bool) {
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	path := make([]string, 0)

	var cycle []string

	var visit func(string) bool
	visit = func(id string) bool {
		visiting[id] = true
		path = append(path, id)

		for _, dep := range g.edges[id] {
			if visiting[dep] {
				// Reconstruct the cycle from the repeated id onward.
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle = append(append([]string{}, path[start:]...), dep)
				return true
			}
			if !visited[dep] {
				if visit(dep) {
					return true
				}
			}
		}

		visiting[id] = false
		visited[id] = true
		path = path[:len(path)-1]
		return false
	}

	for _, id := range ids {
		if !visited[id] && !visiting[id] {
			if visit(id) {
				return cycle, true
			}
		}
	}

	return nil, false
}

// TopologicalSort orders ids so that every extension precedes all
// extensions that depend on it. Ties among independent extensions are
// broken by the order of ids, which callers pass in registration
// order for determinism. Dependencies outside ids are visited for
// ordering but only members of ids appear in the result. Returns the
// cycle path and false when the subgraph is cyclic.
func (g *Graph) TopologicalSort(ids []string) ([]string, []string, bool) {
	if cycle, found := g.DetectCycle(ids); found {
		return nil, cycle, false
	}

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	visited := make(map[string]bool)
	result := make([]string, 0, len(ids))

	var visit func(string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		for _, dep := range g.edges[id] {
			visit(dep)
		}

		if requested[id] {
			result = append(result, id)
		}
	}

	for _, id := range ids {
		visit(id)
	}

	return result, nil, true
}
