package hir

import "github.com/langrust/grust/internal/symtab"

// Edge is one signal-graph edge: sᵢ -> sⱼ means equation sᵢ's defining
// expression references sⱼ, at the given Delay (0 = same instant, ≥1 =
// through fby/last/init fby; spec.md §4.5 step 1).
type Edge struct {
	From, To symtab.ID
	Delay    int
}

// Graph is a node's (or unitary sub-node's) signal-level dependency
// multigraph, spec.md §3's "graph" derived artifact. Two equations may
// both reference the same signal at different delays, hence multigraph:
// Edges may contain more than one edge for the same (From, To) pair.
type Graph struct {
	Signals []symtab.ID
	Edges   []Edge
}

// AddEdge appends one labeled edge.
func (g *Graph) AddEdge(from, to symtab.ID, delay int) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, Delay: delay})
}

// Out returns every edge leaving from.
func (g *Graph) Out(from symtab.ID) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == from {
			out = append(out, e)
		}
	}
	return out
}
