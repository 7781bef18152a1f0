package lower

import (
	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// registerNodeSignature is phase A for one node/component item: it binds
// the node name and every input/event/output signal, so that a
// forward reference to this node from an earlier item in the file
// resolves correctly once phase B runs (spec.md §4.2 "no name is resolved
// before phase A completes for the whole file").
func registerNodeSignature(n *ast.Node, tab *symtab.Table, bag *diag.Bag) symtab.ID {
	nodeID, err := tab.InsertNode(n.Name, n.PeriodMS, n.Loc)
	if err != nil {
		bag.Add(diag.DuplicateName, n.Loc, "%v", err)
	}
	entry := tab.Entry(nodeID)

	tab.Local()
	for _, in := range n.Inputs {
		t := resolveTypeExpr(in.Type, tab, bag)
		id, err := tab.InsertSignal(in.Name, symtab.Input, t, true, nodeID, n.Loc)
		if err != nil {
			bag.Add(diag.DuplicateName, n.Loc, "%v", err)
		}
		entry.Inputs = append(entry.Inputs, id)
	}
	for _, ev := range n.Events {
		payload := resolveTypeExpr(ev.Type, tab, bag)
		_, scrutineeID, err := tab.InsertEvent(nodeID, n.Name, ev.Name, payload, n.Loc)
		if err != nil {
			bag.Add(diag.DuplicateName, n.Loc, "%v", err)
		}
		entry.Events = append(entry.Events, scrutineeID)
	}
	for _, out := range n.Outputs {
		t := resolveTypeExpr(out.Type, tab, bag)
		id, err := tab.InsertSignal(out.Name, symtab.Output, t, true, nodeID, n.Loc)
		if err != nil {
			bag.Add(diag.DuplicateName, n.Loc, "%v", err)
		}
		entry.Outputs = append(entry.Outputs, id)
	}
	// Locals are declared implicitly by their defining equation; phase B
	// inserts them as they're encountered, since a local's type is often
	// only known from its RHS.
	tab.SaveContext(nodeID)
	tab.Global()
	return nodeID
}

// lowerNodeBody is phase B for one node: it re-opens the signature scope
// saved by registerNodeSignature, lowers every equation, and checks the
// last/init pairing invariant (SPEC_FULL.md §10).
func lowerNodeBody(n *ast.Node, nodeID symtab.ID, tab *symtab.Table, bag *diag.Bag) *hir.Node {
	restore, err := tab.RestoreContext(nodeID)
	if err != nil {
		bag.Add(diag.Unsupported, n.Loc, "%v", err)
		return nil
	}
	defer restore()

	node := &hir.Node{
		ID:       nodeID,
		Inputs:   tab.Entry(nodeID).Inputs,
		Events:   tab.Entry(nodeID).Events,
		Outputs:  tab.Entry(nodeID).Outputs,
		PeriodMS: n.PeriodMS,
		Loc:      n.Loc,
		Contract: lowerContract(n.Contract, tab, bag),
	}

	initialized := map[symtab.ID]bool{}
	lastRefs := map[symtab.ID]diag.Location{}

	for _, eq := range n.Equations {
		hirEq := lowerEquation(eq, tab, bag)
		node.Equations = append(node.Equations, hirEq)
		if eq.Kind == ast.EInitSignal {
			for _, tgt := range hirEq.Targets {
				initialized[tgt] = true
			}
		}
		collectLastRefs(hirEq.Expr, lastRefs, eq.Loc)
		for _, arm := range hirEq.Arms {
			collectLastRefs(arm.Body, lastRefs, eq.Loc)
		}
	}
	for id, loc := range lastRefs {
		if !initialized[id] {
			bag.Add(diag.MissingInitEquation, loc, "last %q has no matching init equation", tab.Entry(id).Name)
		}
	}

	node.Locals = localsOf(node, tab)
	for _, id := range node.Locals {
		tab.Entry(id).Owner = nodeID
	}
	return node
}

// localsOf derives the node's local signal set: every equation target not
// already an input/output (spec.md §3 "Locals are declared implicitly").
func localsOf(node *hir.Node, tab *symtab.Table) []symtab.ID {
	known := map[symtab.ID]bool{}
	for _, id := range node.Inputs {
		known[id] = true
	}
	for _, id := range node.Outputs {
		known[id] = true
	}
	var locals []symtab.ID
	seen := map[symtab.ID]bool{}
	for _, eq := range node.Equations {
		for _, tgt := range eq.Targets {
			if !known[tgt] && !seen[tgt] {
				seen[tgt] = true
				locals = append(locals, tgt)
			}
		}
	}
	return locals
}

// collectLastRefs walks e for `last x` occurrences, recording the
// identifier each one refers to.
func collectLastRefs(e *hir.Expr, out map[symtab.ID]diag.Location, loc diag.Location) {
	if e == nil {
		return
	}
	if e.Kind == hir.KLast && e.Inner != nil && e.Inner.Kind == hir.KIdentifier {
		out[e.Inner.ID] = loc
	}
	collectLastRefs(e.Fun, out, loc)
	for _, a := range e.Args {
		collectLastRefs(a, out, loc)
	}
	collectLastRefs(e.Body, out, loc)
	for _, f := range e.Fields {
		collectLastRefs(f, out, loc)
	}
	for _, el := range e.Elements {
		collectLastRefs(el, out, loc)
	}
	collectLastRefs(e.Scrutinee, out, loc)
	for _, arm := range e.Arms {
		collectLastRefs(arm.Guard, out, loc)
		collectLastRefs(arm.Body, out, loc)
	}
	collectLastRefs(e.Base, out, loc)
	collectLastRefs(e.Present, out, loc)
	collectLastRefs(e.Default, out, loc)
	collectLastRefs(e.Coll, out, loc)
	collectLastRefs(e.MapFn, out, loc)
	collectLastRefs(e.FoldFn, out, loc)
	collectLastRefs(e.FoldAcc, out, loc)
	collectLastRefs(e.SortFn, out, loc)
	collectLastRefs(e.Cond, out, loc)
	collectLastRefs(e.Then, out, loc)
	collectLastRefs(e.Else, out, loc)
	collectLastRefs(e.Init, out, loc)
	collectLastRefs(e.Next, out, loc)
	collectLastRefs(e.Inner, out, loc)
	for _, arm := range e.WhenArms {
		collectLastRefs(arm.Body, out, loc)
	}
	if e.InitialArm != nil {
		collectLastRefs(e.InitialArm.Body, out, loc)
	}
}

// lowerEquation lowers one raw equation, binding its targets as local
// signals the first time they're defined (a target already bound, such as
// an output bound by registerNodeSignature, is found by
// GetSignalIDIfBound and reused without calling InsertSignal).
func lowerEquation(eq ast.Equation, tab *symtab.Table, bag *diag.Bag) hir.Equation {
	out := hir.Equation{
		Kind: hir.EquationKind(eq.Kind),
		Loc:  eq.Loc,
	}
	declared := map[symtab.ID]*types.Type{}
	for _, name := range eq.Targets {
		id, ok := tab.GetSignalIDIfBound(name)
		if !ok {
			var t *types.Type
			if dt, has := eq.Declared[name]; has {
				t = resolveTypeExpr(dt, tab, bag)
			}
			var err error
			id, err = tab.InsertSignal(name, symtab.Local, t, false, 0, eq.Loc)
			if err != nil {
				bag.Add(diag.DuplicateName, eq.Loc, "%v", err)
			}
		}
		out.Targets = append(out.Targets, id)
		if dt, has := eq.Declared[name]; has {
			declared[id] = resolveTypeExpr(dt, tab, bag)
		}
	}
	out.DeclaredTypes = declared
	out.Expr = lowerExpr(eq.Expr, tab, bag)
	out.Scrutinee = lowerExpr(eq.Scrutinee, tab, bag)
	for _, a := range eq.Arms {
		tab.Local()
		pat := lowerPattern(a.Pattern, tab, bag)
		guard := lowerExpr(a.Guard, tab, bag)
		body := lowerExpr(a.Body, tab, bag)
		tab.Global()
		out.Arms = append(out.Arms, hir.MatchArm{Pattern: pat, Guard: guard, Body: body})
	}
	return out
}
