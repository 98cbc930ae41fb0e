// Package graph models the dependency graph between bot modules.
//
// Only required edges take part in cycle detection. Optional edges are kept
// alongside so callers can prefer them for ordering without ever failing on
// them.
package graph

import (
	"sort"

	"github.com/kingrea/lattice-bot/module"
)

// Edge is a required dependency: From cannot activate before To.
type Edge struct {
	From string
	To   string
}

// Graph is an adjacency map from module key to required module keys.
type Graph struct {
	// keys tracks nodes in insertion order.
	keys []string
	// names maps a key to its display name (declared or discovered).
	names    map[string]string
	required map[string][]string
	optional map[string][]string
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		names:    map[string]string{},
		required: map[string][]string{},
		optional: map[string][]string{},
	}
}

// Build creates a graph from discovered module metadata.
func Build(metas []module.Metadata) *Graph {
	g := New()
	for _, meta := range metas {
		g.Add(meta)
	}
	return g
}

// Add inserts or replaces the node for meta. Replacing keeps the node's
// original position so output stays stable.
func (g *Graph) Add(meta module.Metadata) {
	meta = meta.Normalized()
	key := meta.Key()
	if key == "" {
		return
	}
	if _, exists := g.required[key]; !exists {
		g.keys = append(g.keys, key)
	}
	g.names[key] = meta.Name
	g.required[key] = g.edgeKeys(meta.RequiredModules)
	g.optional[key] = g.edgeKeys(meta.OptionalModules)
}

func (g *Graph) edgeKeys(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		key := module.KeyOf(name)
		if _, known := g.names[key]; !known {
			g.names[key] = name
		}
		out = append(out, key)
	}
	return out
}

// Has reports whether name is a discovered node (not merely referenced).
func (g *Graph) Has(name string) bool {
	_, ok := g.required[module.KeyOf(name)]
	return ok
}

// Len returns the number of discovered nodes.
func (g *Graph) Len() int {
	return len(g.keys)
}

// Name returns the display name for a node or referenced dependency.
func (g *Graph) Name(name string) string {
	if display, ok := g.names[module.KeyOf(name)]; ok {
		return display
	}
	return name
}

// Nodes returns discovered node names sorted by key.
func (g *Graph) Nodes() []string {
	keys := g.sortedKeys()
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = g.names[key]
	}
	return out
}

// Required returns the required dependencies of name in declaration order.
func (g *Graph) Required(name string) []string {
	return g.display(g.required[module.KeyOf(name)])
}

// Optional returns the optional dependencies of name in declaration order.
func (g *Graph) Optional(name string) []string {
	return g.display(g.optional[module.KeyOf(name)])
}

// Dependents returns discovered nodes that require name, sorted.
func (g *Graph) Dependents(name string) []string {
	target := module.KeyOf(name)
	var out []string
	for _, key := range g.sortedKeys() {
		for _, dep := range g.required[key] {
			if dep == target {
				out = append(out, g.names[key])
				break
			}
		}
	}
	return out
}

// Edges lists every required edge: sources sorted, targets in declaration order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, key := range g.sortedKeys() {
		for _, dep := range g.required[key] {
			edges = append(edges, Edge{From: g.names[key], To: g.names[dep]})
		}
	}
	return edges
}

// Reaches reports whether to is reachable from from over required edges.
// A node does not reach itself unless it sits on a cycle.
func (g *Graph) Reaches(from, to string) bool {
	target := module.KeyOf(to)
	seen := map[string]bool{}
	stack := append([]string(nil), g.required[module.KeyOf(from)]...)
	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if key == target {
			return true
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		stack = append(stack, g.required[key]...)
	}
	return false
}

func (g *Graph) display(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = g.names[key]
	}
	return out
}

func (g *Graph) sortedKeys() []string {
	keys := append([]string(nil), g.keys...)
	sort.Strings(keys)
	return keys
}
