package unitary

import (
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
)

// RewriteCallSites runs spec.md §4.5 step 4 over the whole program: every
// KNodeApplication still in the HIR is rewritten in place to
// KUnitaryNodeApplication, with Args projected onto the unitary
// sub-node's pruned input list. Must run after every node's
// UnitaryNodes map has been populated.
func RewriteCallSites(prog *hir.Program) {
	for _, fn := range prog.Functions {
		rewriteExpr(fn.Body, prog)
	}
	for _, node := range prog.Nodes {
		for i := range node.Equations {
			eq := &node.Equations[i]
			rewriteExpr(eq.Expr, prog)
			rewriteExpr(eq.Scrutinee, prog)
			for _, arm := range eq.Arms {
				rewriteExpr(arm.Guard, prog)
				rewriteExpr(arm.Body, prog)
			}
		}
	}
}

// rewriteExpr walks every sub-expression of e, rewriting any
// KNodeApplication it finds before recursing into the (possibly pruned)
// argument list.
func rewriteExpr(e *hir.Expr, prog *hir.Program) {
	if e == nil {
		return
	}
	if e.Kind == hir.KNodeApplication {
		rewriteOne(e, prog)
	}

	rewriteExpr(e.Fun, prog)
	for _, a := range e.Args {
		rewriteExpr(a, prog)
	}
	rewriteExpr(e.Body, prog)
	for _, f := range e.Fields {
		rewriteExpr(f, prog)
	}
	for _, el := range e.Elements {
		rewriteExpr(el, prog)
	}
	rewriteExpr(e.Scrutinee, prog)
	for _, arm := range e.Arms {
		rewriteExpr(arm.Guard, prog)
		rewriteExpr(arm.Body, prog)
	}
	rewriteExpr(e.Base, prog)
	rewriteExpr(e.Present, prog)
	rewriteExpr(e.Default, prog)
	rewriteExpr(e.Coll, prog)
	rewriteExpr(e.MapFn, prog)
	rewriteExpr(e.FoldFn, prog)
	rewriteExpr(e.FoldAcc, prog)
	rewriteExpr(e.SortFn, prog)
	rewriteExpr(e.Cond, prog)
	rewriteExpr(e.Then, prog)
	rewriteExpr(e.Else, prog)
	rewriteExpr(e.Init, prog)
	rewriteExpr(e.Next, prog)
	rewriteExpr(e.Inner, prog)
	for _, arm := range e.WhenArms {
		rewriteExpr(arm.Body, prog)
	}
	if e.InitialArm != nil {
		rewriteExpr(e.InitialArm.Body, prog)
	}
}

// rewriteOne rewrites a single KNodeApplication to KUnitaryNodeApplication.
func rewriteOne(e *hir.Expr, prog *hir.Program) {
	callee, ok := prog.Nodes[e.NodeID]
	if !ok {
		return
	}
	sub, ok := callee.UnitaryNodes[e.OutputID]
	if !ok {
		return // output never defined; already diagnosed by GenerateNode
	}
	e.Args = projectArgs(callee.Inputs, sub.Inputs, e.Args)
	e.Kind = hir.KUnitaryNodeApplication
}

// projectArgs drops every argument at a position whose corresponding
// parent-node input the unitary sub-node doesn't consume (spec.md §4.5
// step 4's "positional projection").
func projectArgs(allInputs, keepInputs []symtab.ID, args []*hir.Expr) []*hir.Expr {
	keep := make(map[symtab.ID]bool, len(keepInputs))
	for _, id := range keepInputs {
		keep[id] = true
	}
	out := make([]*hir.Expr, 0, len(keepInputs))
	for i, id := range allInputs {
		if i >= len(args) {
			break
		}
		if keep[id] {
			out = append(out, args[i])
		}
	}
	return out
}
