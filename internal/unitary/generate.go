package unitary

import (
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
)

// GenerateProgram runs spec.md §4.5 over every node of prog: builds each
// node's whole-node signal graph, derives one unitary sub-node per
// output, then rewrites every node-application call site in the program
// to target the right sub-node with its arguments pruned.
func GenerateProgram(prog *hir.Program, tab *symtab.Table, bag *diag.Bag) {
	for _, id := range prog.Order {
		node, ok := prog.Nodes[id]
		if !ok {
			continue
		}
		GenerateNode(node, tab, bag)
	}
	RewriteCallSites(prog)
}

// GenerateNode runs spec.md §4.5 steps 1-3 for one node, filling in
// node.Graph and node.UnitaryNodes. Step 4 (call-site rewriting) is
// global and handled separately by RewriteCallSites.
func GenerateNode(node *hir.Node, tab *symtab.Table, bag *diag.Bag) {
	node.Graph = BuildGraph(node)
	node.UnitaryNodes = make(map[symtab.ID]*hir.UnitaryNode, len(node.Outputs))

	for _, out := range node.Outputs {
		if !boundByAnyEquation(node, out) {
			bag.Add(diag.MissingOutputDefinition, node.Loc, "output %q has no defining equation", tab.Entry(out).Name)
			continue
		}
		node.UnitaryNodes[out] = buildUnitaryNode(node, out)
	}
}

func boundByAnyEquation(node *hir.Node, sig symtab.ID) bool {
	for i := range node.Equations {
		for _, t := range node.Equations[i].Targets {
			if t == sig {
				return true
			}
		}
	}
	return false
}

// buildUnitaryNode derives the unitary sub-node for one output: the
// order-preserving projection of N.inputs onto R(o) (step 2), every
// equation binding a signal in R(o) (step 3's Eqs(o)), the memory set of
// signals referenced through fby/last within those equations, and the
// sub-graph of N's graph induced by R(o).
func buildUnitaryNode(node *hir.Node, out symtab.ID) *hir.UnitaryNode {
	r := reachable(node.Graph, out)

	var inputs []symtab.ID
	for _, in := range node.Inputs {
		if r.Has(int(in)) {
			inputs = append(inputs, in)
		}
	}

	var eqs []hir.Equation
	for i := range node.Equations {
		eq := &node.Equations[i]
		for _, t := range eq.Targets {
			if r.Has(int(t)) {
				eqs = append(eqs, *eq)
				break
			}
		}
	}

	return &hir.UnitaryNode{
		Parent:    node.ID,
		Output:    out,
		Inputs:    inputs,
		Equations: eqs,
		Memory:    memorySignals(eqs),
		Graph:     restrict(node.Graph, r),
	}
}

// memorySignals is the set of signals wrapped by fby/last anywhere in
// eqs — the state that must be carried across reaction steps.
func memorySignals(eqs []hir.Equation) map[symtab.ID]struct{} {
	out := map[symtab.ID]struct{}{}
	for i := range eqs {
		walkEquation(&eqs[i], func(to symtab.ID, delay int) {
			if delay > 0 {
				out[to] = struct{}{}
			}
		})
	}
	return out
}
