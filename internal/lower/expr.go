package lower

import (
	"errors"
	"fmt"

	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
)

// lowerExprStandalone lowers a literal-only expression (used by contract
// constants, which never reference signals).
func lowerExprStandalone(e *ast.Expr, tab *symtab.Table, bag *diag.Bag) *hir.Expr {
	return lowerExpr(e, tab, bag)
}

// lowerExpr resolves every identifier in e through tab and builds the
// corresponding hir.Expr, recording the dependency set (every signal id
// read) along the way, per spec.md §3 "Expression tree... dependency set".
func lowerExpr(e *ast.Expr, tab *symtab.Table, bag *diag.Bag) *hir.Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.EConstInt:
		return &hir.Expr{Kind: hir.KConstant, Loc: e.Loc, Const: hir.Constant{IsInt: true, Int: e.Int}}
	case ast.EConstFloat:
		return &hir.Expr{Kind: hir.KConstant, Loc: e.Loc, Const: hir.Constant{IsFloat: true, Float: e.Float}}
	case ast.EConstBool:
		return &hir.Expr{Kind: hir.KConstant, Loc: e.Loc, Const: hir.Constant{IsBool: true, Bool: e.Bool}}
	case ast.EConstUnit:
		return &hir.Expr{Kind: hir.KConstant, Loc: e.Loc, Const: hir.Constant{IsUnit: true}}

	case ast.EIdent:
		id, _ := resolveIdent(e.Name, tab, e.Loc, bag)
		return &hir.Expr{Kind: hir.KIdentifier, Loc: e.Loc, ID: id, Deps: depSet(id)}

	case ast.EEventPattern:
		// `ident?` without an explicit `let` desugars to `let ident = ident?`:
		// both bind and read the same name, so lowering it as a plain
		// identifier reference is correct once the caller (the equation/arm
		// lowerer) has bound `ident` via the event pattern.
		id, _ := resolveIdent(e.EventPatternName, tab, e.Loc, bag)
		return &hir.Expr{Kind: hir.KIdentifier, Loc: e.Loc, ID: id, Deps: depSet(id)}

	case ast.EApply:
		fun := lowerCallee(e.Fun, tab, bag)
		args := lowerExprs(e.Args, tab, bag)
		return &hir.Expr{Kind: hir.KApplication, Loc: e.Loc, Fun: fun, Args: args, Deps: mergeDeps(append(args, fun)...)}

	case ast.ELambda:
		tab.Local()
		params := make([]symtab.ID, 0, len(e.Params))
		for _, p := range e.Params {
			id, err := tab.InsertSignal(p, symtab.Local, nil, true, 0, e.Loc)
			if err != nil {
				bag.Add(diag.DuplicateName, e.Loc, "%v", err)
			}
			params = append(params, id)
		}
		body := lowerExpr(e.Body, tab, bag)
		tab.Global()
		return &hir.Expr{Kind: hir.KLambda, Loc: e.Loc, Params: params, Body: body, Deps: mergeDeps(body)}

	case ast.EStruct:
		fields := map[string]*hir.Expr{}
		allDeps := make([]*hir.Expr, 0, len(e.FieldOrder))
		for _, name := range e.FieldOrder {
			fe := lowerExpr(e.Fields[name], tab, bag)
			fields[name] = fe
			allDeps = append(allDeps, fe)
		}
		typeID, err := tab.GetTypedefID(e.TypeName, e.Loc)
		if err != nil {
			bag.Add(diag.Unsupported, e.Loc, "%v", err)
		}
		return &hir.Expr{Kind: hir.KStructure, Loc: e.Loc, TypeID: int(typeID), Fields: fields, FieldOrder: append([]string{}, e.FieldOrder...), Deps: mergeDeps(allDeps...)}

	case ast.EEnum:
		enumID, err := tab.GetTypedefID(e.EnumName, e.Loc)
		if err != nil {
			bag.Add(diag.Unsupported, e.Loc, "%v", err)
		}
		return &hir.Expr{Kind: hir.KEnumeration, Loc: e.Loc, EnumID: int(enumID), ElemName: e.ElemName}

	case ast.EArray:
		elems := lowerExprs(e.Elements, tab, bag)
		return &hir.Expr{Kind: hir.KArray, Loc: e.Loc, Elements: elems, Deps: mergeDeps(elems...)}

	case ast.EMatch:
		scrutinee := lowerExpr(e.Scrutinee, tab, bag)
		arms := make([]hir.MatchArm, 0, len(e.Arms))
		for _, a := range e.Arms {
			tab.Local()
			pat := lowerPattern(a.Pattern, tab, bag)
			guard := lowerExpr(a.Guard, tab, bag)
			body := lowerExpr(a.Body, tab, bag)
			tab.Global()
			arms = append(arms, hir.MatchArm{Pattern: pat, Guard: guard, Body: body})
		}
		return &hir.Expr{Kind: hir.KMatch, Loc: e.Loc, Scrutinee: scrutinee, Arms: arms, Deps: mergeDeps(scrutinee)}

	case ast.EFieldAccess:
		base := lowerExpr(e.Base, tab, bag)
		return &hir.Expr{Kind: hir.KFieldAccess, Loc: e.Loc, Base: base, FieldName: e.Field, Deps: mergeDeps(base)}

	case ast.ETupleAccess:
		base := lowerExpr(e.Base, tab, bag)
		return &hir.Expr{Kind: hir.KTupleAccess, Loc: e.Loc, Base: base, Index: e.Index, Deps: mergeDeps(base)}

	case ast.EWhen:
		optID, _ := resolveIdent(e.OptionName, tab, e.Loc, bag)
		present := lowerExpr(e.Present, tab, bag)
		def := lowerExpr(e.Default, tab, bag)
		deps := mergeDeps(present, def)
		deps[optID] = struct{}{}
		return &hir.Expr{Kind: hir.KWhen, Loc: e.Loc, OptionID: optID, Present: present, Default: def, Deps: deps}

	case ast.EMap:
		coll := lowerExpr(e.Coll, tab, bag)
		fn := lowerExpr(e.MapFn, tab, bag)
		return &hir.Expr{Kind: hir.KMap, Loc: e.Loc, Coll: coll, MapFn: fn, Deps: mergeDeps(coll, fn)}

	case ast.EFold:
		coll := lowerExpr(e.Coll, tab, bag)
		fn := lowerExpr(e.FoldFn, tab, bag)
		acc := lowerExpr(e.FoldAcc, tab, bag)
		return &hir.Expr{Kind: hir.KFold, Loc: e.Loc, Coll: coll, FoldFn: fn, FoldAcc: acc, Deps: mergeDeps(coll, fn, acc)}

	case ast.ESort:
		coll := lowerExpr(e.Coll, tab, bag)
		fn := lowerExpr(e.SortFn, tab, bag)
		return &hir.Expr{Kind: hir.KSort, Loc: e.Loc, Coll: coll, SortFn: fn, Deps: mergeDeps(coll, fn)}

	case ast.EZip:
		args := lowerExprs(e.Args, tab, bag)
		return &hir.Expr{Kind: hir.KZip, Loc: e.Loc, Args: args, Deps: mergeDeps(args...)}

	case ast.EIf:
		cond := lowerExpr(e.Cond, tab, bag)
		then := lowerExpr(e.Then, tab, bag)
		els := lowerExpr(e.Else, tab, bag)
		return &hir.Expr{Kind: hir.KIf, Loc: e.Loc, Cond: cond, Then: then, Else: els, Deps: mergeDeps(cond, then, els)}

	case ast.EFollowedBy:
		init := lowerExpr(e.Init, tab, bag)
		next := lowerExpr(e.Next, tab, bag)
		return &hir.Expr{Kind: hir.KFollowedBy, Loc: e.Loc, Init: init, Next: next, Deps: mergeDeps(next)}

	case ast.ELast:
		inner := lowerExpr(e.Inner, tab, bag)
		return &hir.Expr{Kind: hir.KLast, Loc: e.Loc, Inner: inner, Deps: mergeDeps(inner)}

	case ast.ENodeCall:
		nodeID, err := tab.GetNodeID(e.CalleeName, e.Loc)
		if err != nil {
			bag.Add(diag.UnknownNode, e.Loc, "%v", err)
		} else if tab.IsComponent(nodeID) {
			bag.Add(diag.ComponentCall, e.Loc, "component %q called from a node body", e.CalleeName)
		}
		var outID symtab.ID
		if err == nil {
			outID, _ = findOutputByName(tab, nodeID, e.OutputName)
		}
		args := lowerExprs(e.Args, tab, bag)
		return &hir.Expr{Kind: hir.KNodeApplication, Loc: e.Loc, NodeID: nodeID, OutputID: outID, Args: args, Deps: mergeDeps(args...)}

	case ast.EEmit:
		inner := lowerExpr(e.Inner, tab, bag)
		return &hir.Expr{Kind: hir.KEmit, Loc: e.Loc, Inner: inner, Deps: mergeDeps(inner)}

	case ast.EReactiveWhen:
		arms := make([]hir.WhenArm, 0, len(e.WhenArms))
		for _, a := range e.WhenArms {
			eventID, err := tab.GetSignalID(a.EventName, e.Loc)
			if err != nil {
				bag.Add(diag.UnknownSignal, e.Loc, "%v", err)
			}
			tab.Local()
			var bindID symtab.ID
			if a.BindName != "" {
				bindID, _ = tab.InsertSignal(a.BindName, symtab.Local, nil, false, 0, e.Loc)
			}
			body := lowerExpr(a.Body, tab, bag)
			tab.Global()
			arms = append(arms, hir.WhenArm{EventID: eventID, BindID: bindID, Body: body})
		}
		var initial *hir.WhenArm
		if e.InitialArm != nil {
			eventID, _ := tab.GetSignalID(e.InitialArm.EventName, e.Loc)
			body := lowerExpr(e.InitialArm.Body, tab, bag)
			initial = &hir.WhenArm{EventID: eventID, Body: body}
		}
		return &hir.Expr{Kind: hir.KReactiveWhen, Loc: e.Loc, WhenArms: arms, InitialArm: initial}

	default:
		bag.Add(diag.Unsupported, e.Loc, "unsupported expression kind")
		return &hir.Expr{Kind: hir.KConstant, Loc: e.Loc, Const: hir.Constant{IsUnit: true}}
	}
}

func lowerExprs(es []*ast.Expr, tab *symtab.Table, bag *diag.Bag) []*hir.Expr {
	out := make([]*hir.Expr, 0, len(es))
	for _, e := range es {
		out = append(out, lowerExpr(e, tab, bag))
	}
	return out
}

func lowerPattern(p ast.Pattern, tab *symtab.Table, bag *diag.Bag) hir.Pattern {
	switch p.Kind {
	case ast.PStruct:
		fields := map[string]hir.Pattern{}
		for k, v := range p.Fields {
			fields[k] = lowerPattern(v, tab, bag)
		}
		typeID, err := tab.GetTypedefID(p.TypeName, p.Loc)
		if err != nil {
			bag.Add(diag.Unsupported, p.Loc, "%v", err)
		}
		return hir.Pattern{Kind: hir.PStructure, Loc: p.Loc, TypeID: int(typeID), Fields: fields}
	case ast.PEnum:
		typeID, err := tab.GetTypedefID(p.TypeName, p.Loc)
		if err != nil {
			bag.Add(diag.Unsupported, p.Loc, "%v", err)
		}
		return hir.Pattern{Kind: hir.PEnumeration, Loc: p.Loc, TypeID: int(typeID), ElemName: p.ElemName}
	case ast.PTuple:
		elems := make([]hir.Pattern, 0, len(p.Elems))
		for _, e := range p.Elems {
			elems = append(elems, lowerPattern(e, tab, bag))
		}
		return hir.Pattern{Kind: hir.PTuple, Loc: p.Loc, Elems: elems}
	case ast.PConst:
		ce := lowerExpr(p.ConstExpr, tab, bag)
		return hir.Pattern{Kind: hir.PConstant, Loc: p.Loc, Const: ce.Const}
	case ast.PIdent:
		id, err := tab.InsertSignal(p.BindName, symtab.Local, nil, false, 0, p.Loc)
		if err != nil {
			bag.Add(diag.DuplicateName, p.Loc, "%v", err)
		}
		return hir.Pattern{Kind: hir.PIdentifier, Loc: p.Loc, BindID: id, BindName: p.BindName}
	default:
		return hir.Pattern{Kind: hir.PDefault, Loc: p.Loc}
	}
}

// lowerCallee resolves an application's callee. A bare identifier first
// tries the function namespace (built-in operators and user functions
// live there); only if that fails does it fall back to an ordinary
// signal lookup, covering a lambda-valued local passed around as data.
func lowerCallee(fn *ast.Expr, tab *symtab.Table, bag *diag.Bag) *hir.Expr {
	if fn.Kind == ast.EIdent {
		if id, err := tab.GetFunctionID(fn.Name, fn.Loc); err == nil {
			return &hir.Expr{Kind: hir.KIdentifier, Loc: fn.Loc, ID: id, Deps: depSet()}
		}
	}
	return lowerExpr(fn, tab, bag)
}

func resolveIdent(name string, tab *symtab.Table, loc diag.Location, bag *diag.Bag) (symtab.ID, error) {
	id, err := tab.GetSignalID(name, loc)
	if err != nil {
		bag.Add(diag.UnknownSignal, loc, "%v", err)
		return 0, err
	}
	return id, nil
}

func depSet(ids ...symtab.ID) map[symtab.ID]struct{} {
	m := map[symtab.ID]struct{}{}
	for _, id := range ids {
		if id != 0 {
			m[id] = struct{}{}
		}
	}
	return m
}

func mergeDeps(es ...*hir.Expr) map[symtab.ID]struct{} {
	m := map[symtab.ID]struct{}{}
	for _, e := range es {
		if e == nil {
			continue
		}
		for id := range e.Deps {
			m[id] = struct{}{}
		}
	}
	return m
}

func findOutputByName(tab *symtab.Table, nodeID symtab.ID, name string) (symtab.ID, error) {
	for _, out := range tab.NodeOutputs(nodeID) {
		if tab.Entry(out).Name == name {
			return out, nil
		}
	}
	return 0, fmt.Errorf("%w: output %q not found on node %d", diagErrUnknownOutputSignal, name, nodeID)
}

var diagErrUnknownOutputSignal = errors.New(string(diag.UnknownOutputSignal))
