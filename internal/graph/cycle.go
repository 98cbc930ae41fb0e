package graph

import "github.com/kingrea/lattice-bot/module"

// DetectCycle walks the required edges depth-first and returns a
// *module.CycleError for the first edge that points back onto the recursion
// stack. Edges to undiscovered modules are dead ends here; existence is
// checked during resolution. Roots are visited in sorted order so the
// reported edge is deterministic.
func (g *Graph) DetectCycle() error {
	visited := make(map[string]bool, len(g.keys))
	onStack := make(map[string]bool, len(g.keys))
	var stack []string

	var visit func(key string) error
	visit = func(key string) error {
		visited[key] = true
		onStack[key] = true
		stack = append(stack, key)
		for _, dep := range g.required[key] {
			if _, discovered := g.required[dep]; !discovered {
				continue
			}
			if onStack[dep] {
				return g.cycleError(stack, key, dep)
			}
			if visited[dep] {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		onStack[key] = false
		return nil
	}

	for _, key := range g.sortedKeys() {
		if visited[key] {
			continue
		}
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) cycleError(stack []string, from, to string) error {
	start := len(stack) - 1
	for start > 0 && stack[start] != to {
		start--
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, key := range stack[start:] {
		path = append(path, g.names[key])
	}
	path = append(path, g.names[to])
	return &module.CycleError{From: g.names[from], To: g.names[to], Path: path}
}
