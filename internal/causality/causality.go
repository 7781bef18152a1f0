package causality

import (
	"sort"
	"strings"

	"golang.org/x/tools/container/intsets"

	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
)

// AnalyzeProgram runs spec.md §4.6 over every unitary sub-node of every
// node in prog. Must run after internal/unitary has populated
// node.UnitaryNodes.
func AnalyzeProgram(prog *hir.Program, tab *symtab.Table, bag *diag.Bag) {
	for _, id := range prog.Order {
		node, ok := prog.Nodes[id]
		if !ok {
			continue
		}
		for _, out := range node.Outputs {
			sub, ok := node.UnitaryNodes[out]
			if !ok {
				continue
			}
			Analyze(node, sub, tab, bag)
		}
	}
}

// Analyze runs spec.md §4.6 steps 1-4 for one unitary sub-node: takes its
// graph restricted to its own signals (already true of sub.Graph, built
// by internal/unitary), computes SCCs of the delay-0 subgraph, and either
// reports InstantaneousLoop or fills sub.Schedule with the deterministic
// topological order (ties broken by ascending signal id) and reorders
// sub.Equations to match (spec.md §4.5's tie-break rule).
//
// Only delay-0 edges matter for both checks: a cycle that includes any
// edge of delay >= 1 reads a value already computed in a prior step, so
// it can never create a same-instant scheduling conflict. Contracting
// every delay-0 edge and requiring the result to be a DAG (spec.md
// §4.6 step 2's phrasing) is exactly "the delay-0 subgraph has no
// cycle, including self-loops".
func Analyze(node *hir.Node, sub *hir.UnitaryNode, tab *symtab.Table, bag *diag.Bag) {
	adj := zeroDelaySubgraph(sub.Graph)

	var bad []symtab.ID
	for _, scc := range tarjan(sub.Graph.Signals, adj) {
		if len(scc) > 1 {
			bad = append(bad, scc...)
			continue
		}
		v := scc[0]
		if adj[v][v] {
			bad = append(bad, v)
		}
	}
	if len(bad) > 0 {
		sort.Slice(bad, func(i, j int) bool { return bad[i] < bad[j] })
		names := make([]string, len(bad))
		for i, id := range bad {
			names[i] = tab.Entry(id).Name
		}
		bag.Add(diag.InstantaneousLoop, node.Loc, "instantaneous loop through %s", strings.Join(names, ", "))
		return
	}

	sub.Schedule = topoSchedule(sub.Graph.Signals, adj)
	reorderEquations(sub)
}

// zeroDelaySubgraph returns the set-based adjacency of g's delay-0 edges
// only; every signal in g.Signals is present as a key (possibly with an
// empty/nil adjacency set) so Tarjan visits isolated signals too.
func zeroDelaySubgraph(g *hir.Graph) map[symtab.ID]map[symtab.ID]bool {
	adj := make(map[symtab.ID]map[symtab.ID]bool, len(g.Signals))
	for _, id := range g.Signals {
		adj[id] = map[symtab.ID]bool{}
	}
	for _, e := range g.Edges {
		if e.Delay == 0 {
			adj[e.From][e.To] = true
		}
	}
	return adj
}

// topoSchedule runs Kahn's algorithm over the delay-0 subgraph: edge
// v -> w means v depends on w, so w must be scheduled first. The ready
// frontier is drained through intsets.Sparse.TakeMin so ties are always
// broken by ascending signal id, independent of map iteration order.
func topoSchedule(signals []symtab.ID, adj map[symtab.ID]map[symtab.ID]bool) []symtab.ID {
	depCount := make(map[symtab.ID]int, len(signals))
	consumers := map[symtab.ID][]symtab.ID{}
	for _, v := range signals {
		depCount[v] = len(adj[v])
	}
	for v, deps := range adj {
		for w := range deps {
			consumers[w] = append(consumers[w], v)
		}
	}
	for w := range consumers {
		sort.Slice(consumers[w], func(i, j int) bool { return consumers[w][i] < consumers[w][j] })
	}

	var ready intsets.Sparse
	for _, v := range signals {
		if depCount[v] == 0 {
			ready.Insert(int(v))
		}
	}

	schedule := make([]symtab.ID, 0, len(signals))
	var cur int
	for ready.TakeMin(&cur) {
		v := symtab.ID(cur)
		schedule = append(schedule, v)
		for _, c := range consumers[v] {
			depCount[c]--
			if depCount[c] == 0 {
				ready.Insert(int(c))
			}
		}
	}
	return schedule
}

// reorderEquations sorts sub.Equations by the schedule position of the
// earliest-scheduled signal each equation binds (spec.md §4.5's
// tie-break: "Equations are emitted in the topological order of §4.6").
func reorderEquations(sub *hir.UnitaryNode) {
	pos := make(map[symtab.ID]int, len(sub.Schedule))
	for i, id := range sub.Schedule {
		pos[id] = i
	}
	key := func(eq hir.Equation) int {
		best := len(sub.Schedule)
		for _, t := range eq.Targets {
			if p, ok := pos[t]; ok && p < best {
				best = p
			}
		}
		return best
	}
	sort.SliceStable(sub.Equations, func(i, j int) bool {
		return key(sub.Equations[i]) < key(sub.Equations[j])
	})
}
