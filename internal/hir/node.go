package hir

import (
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/symtab"
)

// Node = (id, ordered inputs, events, ordered outputs, locals, optional
// period_ms, contract, equations, location), plus the two derived
// artifacts the middle-end fills in: Graph and UnitaryNodes (spec.md §3
// "Node"). Components are nodes with PeriodMS set.
type Node struct {
	ID        symtab.ID
	Inputs    []symtab.ID // ordered
	Events    []symtab.ID
	Outputs   []symtab.ID // ordered
	Locals    []symtab.ID
	PeriodMS  *int
	Contract  Contract
	Equations []Equation
	Loc       diag.Location

	// Derived by internal/unitary: the whole node's signal graph.
	Graph *Graph
	// Derived by internal/unitary: one sub-node per output.
	UnitaryNodes map[symtab.ID]*UnitaryNode
}

// IsComponent reports whether this node declares a period.
func (n *Node) IsComponent() bool { return n.PeriodMS != nil }

// UnitaryNode = (parentNodeId, outputId, pruned inputs, scheduled
// equations, memory set, graph); one per output of each node (spec.md §3
// "Unitary sub-node").
type UnitaryNode struct {
	Parent    symtab.ID
	Output    symtab.ID
	Inputs    []symtab.ID // pruned, N.inputs order preserved
	Equations []Equation  // Eqs(oᵢ), in §4.6 topological schedule order once scheduled
	Memory    map[symtab.ID]struct{}
	Graph     *Graph

	// Schedule is the §4.6 topological order of bound signals within one
	// reaction step, filled by internal/causality. Nil until that pass runs.
	Schedule []symtab.ID
}
