package lower

import (
	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
)

// registerInterfaceSignature is phase A for one interface/service block:
// bind the interface name, then every flow it declares (import, let, or
// bare instantiation), so a flow can reference another declared later in
// the same block (spec.md §4.2 forward-reference tolerance).
func registerInterfaceSignature(ifc *ast.Interface, tab *symtab.Table, bag *diag.Bag) symtab.ID {
	ifcID, err := tab.InsertInterface(ifc.Name, ifc.Loc)
	if err != nil {
		bag.Add(diag.DuplicateName, ifc.Loc, "%v", err)
	}
	tab.Local()
	for _, st := range ifc.Stmts {
		switch st.Kind {
		case ast.FSImport, ast.FSLetSignal, ast.FSLetEvent, ast.FSBareInstantiation:
			t := resolveTypeExpr(st.Type, tab, bag)
			if _, err := tab.InsertFlow(st.Name, t, ifcID, st.Path, st.Loc); err != nil {
				bag.Add(diag.DuplicateName, st.Loc, "%v", err)
			}
		case ast.FSExport:
			// Exports reference an existing flow; nothing new is bound.
		}
	}
	tab.SaveContext(ifcID)
	tab.Global()
	return ifcID
}

// lowerInterfaceBody is phase B: resolve every flow statement's
// right-hand side against the block's flow scope.
func lowerInterfaceBody(ifc *ast.Interface, ifcID symtab.ID, tab *symtab.Table, bag *diag.Bag) *hir.Interface {
	restore, err := tab.RestoreContext(ifcID)
	if err != nil {
		bag.Add(diag.Unsupported, ifc.Loc, "%v", err)
		return nil
	}
	defer restore()

	out := &hir.Interface{ID: ifcID, Flows: map[symtab.ID]*hir.Flow{}, Loc: ifc.Loc}
	for _, st := range ifc.Stmts {
		if st.IsReserved {
			bag.Add(diag.Unsupported, st.Loc, "reserved construct %q is not implemented", st.ReservedLabel)
			continue
		}
		switch st.Kind {
		case ast.FSExport:
			id, err := tab.GetFlowID(st.Name, st.Loc)
			if err != nil {
				bag.Add(diag.UnknownFlow, st.Loc, "%v", err)
				continue
			}
			if f, ok := out.Flows[id]; ok {
				f.Path = st.Path
			}
		case ast.FSImport, ast.FSLetSignal, ast.FSLetEvent, ast.FSBareInstantiation:
			id, err := tab.GetFlowID(st.Name, st.Loc)
			if err != nil {
				bag.Add(diag.UnknownFlow, st.Loc, "%v", err)
				continue
			}
			var fe *hir.FlowExpr
			if st.Expr != nil {
				fe = lowerFlowExpr(st.Expr, tab, bag)
			}
			flow := &hir.Flow{ID: id, Name: st.Name, Path: st.Path, Expr: fe, Type: tab.Entry(id).Type, Loc: st.Loc}
			out.Flows[id] = flow
			out.Order = append(out.Order, id)
		}
	}
	return out
}

// lowerFlowExpr recognizes the combinator vocabulary of spec.md §4.7
// written as ordinary function applications (`sample(base, 10)`,
// `merge(a, b, c)`, ...) or node calls (`Controller(x, y).out`), and
// builds the tagged hir.FlowExpr.
func lowerFlowExpr(e *ast.Expr, tab *symtab.Table, bag *diag.Bag) *hir.FlowExpr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.EIdent:
		id, err := tab.GetFlowID(e.Name, e.Loc)
		if err != nil {
			bag.Add(diag.UnknownFlow, e.Loc, "%v", err)
		}
		return &hir.FlowExpr{Kind: hir.FIdent, Loc: e.Loc, FlowID: id}

	case ast.EConstInt:
		// A bare millisecond literal used as a period source.
		return &hir.FlowExpr{Kind: hir.FPeriod, Loc: e.Loc, PeriodMS: int(e.Int)}

	case ast.ENodeCall:
		nodeID, err := tab.GetNodeID(e.CalleeName, e.Loc)
		if err != nil {
			bag.Add(diag.UnknownNode, e.Loc, "%v", err)
		} else if !tab.IsComponent(nodeID) {
			bag.Add(diag.NodeCall, e.Loc, "node %q called from an interface; only components may be", e.CalleeName)
		}
		var outID symtab.ID
		if err == nil {
			outID, _ = findOutputByName(tab, nodeID, e.OutputName)
		}
		inputs := make([]*hir.FlowExpr, 0, len(e.Args))
		for _, a := range e.Args {
			inputs = append(inputs, lowerFlowExpr(a, tab, bag))
		}
		return &hir.FlowExpr{Kind: hir.FComponentCall, Loc: e.Loc, ComponentID: nodeID, OutputID: outID, Inputs: inputs}

	case ast.EApply:
		return lowerCombinator(e, tab, bag)

	default:
		bag.Add(diag.Unsupported, e.Loc, "unsupported flow expression")
		return &hir.FlowExpr{Kind: hir.FIdent, Loc: e.Loc}
	}
}

func lowerCombinator(e *ast.Expr, tab *symtab.Table, bag *diag.Bag) *hir.FlowExpr {
	name := ""
	if e.Fun != nil {
		name = e.Fun.Name
	}
	args := e.Args
	arg := func(i int) *ast.Expr {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
	intArg := func(i int) int {
		if a := arg(i); a != nil && a.Kind == ast.EConstInt {
			return int(a.Int)
		}
		return 0
	}
	floatArg := func(i int) float64 {
		if a := arg(i); a != nil && a.Kind == ast.EConstFloat {
			return a.Float
		}
		return 0
	}

	switch name {
	case "sample":
		return &hir.FlowExpr{Kind: hir.FSample, Loc: e.Loc, Base: lowerFlowExpr(arg(0), tab, bag), PeriodMS: intArg(1)}
	case "scan":
		return &hir.FlowExpr{Kind: hir.FScan, Loc: e.Loc, Base: lowerFlowExpr(arg(0), tab, bag), PeriodMS: intArg(1)}
	case "period":
		return &hir.FlowExpr{Kind: hir.FPeriod, Loc: e.Loc, PeriodMS: intArg(0)}
	case "sample_on":
		return &hir.FlowExpr{Kind: hir.FSampleOn, Loc: e.Loc, Base: lowerFlowExpr(arg(0), tab, bag), EventFlow: lowerFlowExpr(arg(1), tab, bag)}
	case "scan_on":
		return &hir.FlowExpr{Kind: hir.FScanOn, Loc: e.Loc, Base: lowerFlowExpr(arg(0), tab, bag), EventFlow: lowerFlowExpr(arg(1), tab, bag)}
	case "timeout":
		return &hir.FlowExpr{Kind: hir.FTimeout, Loc: e.Loc, Base: lowerFlowExpr(arg(0), tab, bag), DeadlineMS: intArg(1)}
	case "throttle":
		// Delta == 0 is the identity case (SPEC_FULL.md §9 Open Question (b)):
		// every event passes through unthrottled.
		return &hir.FlowExpr{Kind: hir.FThrottle, Loc: e.Loc, Base: lowerFlowExpr(arg(0), tab, bag), Delta: floatArg(1)}
	case "on_change":
		return &hir.FlowExpr{Kind: hir.FOnChange, Loc: e.Loc, Base: lowerFlowExpr(arg(0), tab, bag)}
	case "persist":
		return &hir.FlowExpr{Kind: hir.FPersist, Loc: e.Loc, Base: lowerFlowExpr(arg(0), tab, bag)}
	case "merge":
		flows := make([]*hir.FlowExpr, 0, len(args))
		for _, a := range args {
			flows = append(flows, lowerFlowExpr(a, tab, bag))
		}
		return &hir.FlowExpr{Kind: hir.FMerge, Loc: e.Loc, Flows: flows}
	case "zip":
		flows := make([]*hir.FlowExpr, 0, len(args))
		for _, a := range args {
			flows = append(flows, lowerFlowExpr(a, tab, bag))
		}
		return &hir.FlowExpr{Kind: hir.FZip, Loc: e.Loc, Flows: flows}
	default:
		bag.Add(diag.Unsupported, e.Loc, "unsupported flow combinator %q", name)
		return &hir.FlowExpr{Kind: hir.FIdent, Loc: e.Loc}
	}
}
