package unitary

import (
	"golang.org/x/tools/container/intsets"

	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
)

// nodeSignals returns every signal id belonging to node N — N.inputs ∪
// N.events ∪ N.outputs ∪ N.locals — the set S that spec.md §4.5 step 1
// builds the signal graph over.
func nodeSignals(node *hir.Node) *intsets.Sparse {
	var s intsets.Sparse
	for _, id := range node.Inputs {
		s.Insert(int(id))
	}
	for _, id := range node.Events {
		s.Insert(int(id))
	}
	for _, id := range node.Outputs {
		s.Insert(int(id))
	}
	for _, id := range node.Locals {
		s.Insert(int(id))
	}
	return &s
}

// BuildGraph constructs a node's whole-node signal dependency multigraph
// (spec.md §4.5 step 1): for every equation p = e, for every target sᵢ
// bound by p and every reference to sⱼ in e, adds an edge sᵢ -> sⱼ
// labeled with the delay of that reference (the nesting of fby/last
// wrappers around it).
func BuildGraph(node *hir.Node) *hir.Graph {
	signals := nodeSignals(node)
	g := &hir.Graph{Signals: make([]symtab.ID, 0, signals.Len())}
	for _, id := range signals.AppendTo(nil) {
		g.Signals = append(g.Signals, symtab.ID(id))
	}

	for i := range node.Equations {
		eq := &node.Equations[i]
		walkEquation(eq, func(to symtab.ID, delay int) {
			if !signals.Has(int(to)) {
				return
			}
			for _, from := range eq.Targets {
				g.AddEdge(from, to, delay)
			}
		})
	}
	return g
}

// walkEquation visits every signal reference in eq's defining
// expression(s) — the single Expr for LocalDef/OutputDef/InitSignal, or
// the scrutinee plus every arm's guard/body for MatchEq/WhenEq — calling
// add(referencedID, delay) for each.
func walkEquation(eq *hir.Equation, add func(to symtab.ID, delay int)) {
	switch eq.Kind {
	case hir.MatchEq:
		walkExpr(eq.Scrutinee, 0, add)
		for _, arm := range eq.Arms {
			walkExpr(arm.Guard, 0, add)
			walkExpr(arm.Body, 0, add)
		}
	case hir.WhenEq:
		for _, arm := range eq.Arms {
			walkExpr(arm.Guard, 0, add)
			walkExpr(arm.Body, 0, add)
		}
	default:
		walkExpr(eq.Expr, 0, add)
	}
}

// walkExpr recursively visits every sub-expression of e at the given
// base delay, reporting each KIdentifier reference found (at the delay
// accumulated by any enclosing KFollowedBy.Next / KLast.Inner nesting)
// to add. hir.FollowedByDelay only handles a single unwrapped chain; this
// walk generalizes it to arbitrary expression trees.
func walkExpr(e *hir.Expr, delay int, add func(to symtab.ID, delay int)) {
	if e == nil {
		return
	}
	switch e.Kind {
	case hir.KIdentifier:
		add(e.ID, delay)
	case hir.KFollowedBy:
		walkExpr(e.Init, delay, add)
		walkExpr(e.Next, delay+1, add)
	case hir.KLast:
		walkExpr(e.Inner, delay+1, add)
	case hir.KEmit:
		walkExpr(e.Inner, delay, add)
	default:
		walkExpr(e.Fun, delay, add)
		for _, a := range e.Args {
			walkExpr(a, delay, add)
		}
		walkExpr(e.Body, delay, add)
		for _, f := range e.Fields {
			walkExpr(f, delay, add)
		}
		for _, el := range e.Elements {
			walkExpr(el, delay, add)
		}
		walkExpr(e.Scrutinee, delay, add)
		for _, arm := range e.Arms {
			walkExpr(arm.Guard, delay, add)
			walkExpr(arm.Body, delay, add)
		}
		walkExpr(e.Base, delay, add)
		if e.Kind == hir.KWhen {
			add(e.OptionID, delay)
		}
		walkExpr(e.Present, delay, add)
		walkExpr(e.Default, delay, add)
		walkExpr(e.Coll, delay, add)
		walkExpr(e.MapFn, delay, add)
		walkExpr(e.FoldFn, delay, add)
		walkExpr(e.FoldAcc, delay, add)
		walkExpr(e.SortFn, delay, add)
		walkExpr(e.Cond, delay, add)
		walkExpr(e.Then, delay, add)
		walkExpr(e.Else, delay, add)
		for _, arm := range e.WhenArms {
			walkExpr(arm.Body, delay, add)
		}
		if e.InitialArm != nil {
			walkExpr(e.InitialArm.Body, delay, add)
		}
	}
}

// reachable returns R(start): start plus every signal transitively
// reachable from it by following g's edges (spec.md §4.5 step 2). The
// worklist is drained in ascending id order via TakeMin, so traversal
// order is deterministic independent of g.Edges' order.
func reachable(g *hir.Graph, start symtab.ID) *intsets.Sparse {
	var visited, worklist intsets.Sparse
	visited.Insert(int(start))
	worklist.Insert(int(start))

	var cur int
	for worklist.TakeMin(&cur) {
		for _, e := range g.Out(symtab.ID(cur)) {
			if visited.Insert(int(e.To)) {
				worklist.Insert(int(e.To))
			}
		}
	}
	return &visited
}

// restrict returns the sub-graph of g induced by keeping only the
// signals in r: every signal id in r, and every edge whose endpoints
// both lie in r.
func restrict(g *hir.Graph, r *intsets.Sparse) *hir.Graph {
	out := &hir.Graph{}
	for _, id := range g.Signals {
		if r.Has(int(id)) {
			out.Signals = append(out.Signals, id)
		}
	}
	for _, e := range g.Edges {
		if r.Has(int(e.From)) && r.Has(int(e.To)) {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
