package lower

import (
	"golang.org/x/sync/errgroup"

	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// LowerProgram runs the two-phase AST->HIR lowering of spec.md §4.2 over a
// whole file: phase A registers every top-level item's signature (so a
// node can forward-reference a node declared later in the file), then
// phase B resolves each item's body. Phase B items are independent of one
// another (no item's body can see another item's locals), but they all
// push and pop scopes on, and insert entries into, the one shared
// symtab.Table, so phase B runs them one at a time through an
// errgroup.Group limited to a single active goroutine.
func LowerProgram(file *ast.File, tab *symtab.Table, bag *diag.Bag) *hir.Program {
	prog := hir.NewProgram()

	type pending struct {
		kind   ast.ItemKind
		item   ast.Item
		nodeID symtab.ID
		fnID   symtab.ID
		ifcID  symtab.ID
	}
	var items []pending

	// Phase A.
	for _, it := range file.Items {
		switch it.Kind {
		case ast.ITypedef:
			registerTypedefSignature(it.Typedef, tab, bag)
			items = append(items, pending{kind: it.Kind, item: it})
		case ast.IFunction:
			id := registerFunctionSignature(it.Function, tab, bag)
			items = append(items, pending{kind: it.Kind, item: it, fnID: id})
		case ast.INode:
			id := registerNodeSignature(it.Node, tab, bag)
			items = append(items, pending{kind: it.Kind, item: it, nodeID: id})
		case ast.IExternalDecl:
			registerExternalSignature(it.External, tab, bag)
		case ast.IInterface:
			id := registerInterfaceSignature(it.Interface, tab, bag)
			items = append(items, pending{kind: it.Kind, item: it, ifcID: id})
		}
	}

	// Phase B: one goroutine per item, at most one active at a time. Each
	// goroutine builds its own hir.Node/Function/Interface and appends to
	// bag; the symtab.Table's scope stack (RestoreContext/Local/Global) and
	// entry list are shared and unguarded, so the limit of one keeps every
	// goroutine's scope push/pop and inserts from interleaving with another's.
	var g errgroup.Group
	g.SetLimit(1)
	results := make([]interface{}, len(items))
	for i, p := range items {
		i, p := i, p
		switch p.kind {
		case ast.IFunction:
			g.Go(func() error {
				results[i] = lowerFunctionBody(p.item.Function, p.fnID, tab, bag)
				return nil
			})
		case ast.INode:
			g.Go(func() error {
				results[i] = lowerNodeBody(p.item.Node, p.nodeID, tab, bag)
				return nil
			})
		case ast.IInterface:
			g.Go(func() error {
				results[i] = lowerInterfaceBody(p.item.Interface, p.ifcID, tab, bag)
				return nil
			})
		}
	}
	_ = g.Wait() // no goroutine returns a non-nil error; failures are diag.Bag records

	for i, p := range items {
		switch r := results[i].(type) {
		case *hir.Function:
			if r != nil {
				prog.Functions[p.fnID] = r
				prog.Order = append(prog.Order, p.fnID)
			}
		case *hir.Node:
			if r != nil {
				prog.Nodes[p.nodeID] = r
				prog.Order = append(prog.Order, p.nodeID)
			}
		case *hir.Interface:
			if r != nil {
				prog.Interfaces[p.ifcID] = r
				prog.Order = append(prog.Order, p.ifcID)
			}
		}
	}
	return prog
}

func registerTypedefSignature(td *ast.Typedef, tab *symtab.Table, bag *diag.Bag) symtab.ID {
	// The concrete Structure/Enumeration payload (field list, element
	// list) is filled in by internal/typedef once every typedef name in
	// the file is bound; here we only reserve the name and its id so
	// forward references resolve.
	var placeholder *types.Type
	switch {
	case td.IsStruct:
		placeholder = types.NewStructure(td.Name, 0)
	case td.IsEnum:
		placeholder = types.NewEnumeration(td.Name, 0)
	default:
		placeholder = types.NewNotDefinedYet(td.Name)
	}
	id, err := tab.InsertTypedef(td.Name, placeholder, td.Loc)
	if err != nil {
		bag.Add(diag.DuplicateName, td.Loc, "%v", err)
	}
	if td.IsStruct || td.IsEnum {
		placeholder.ID = int(id)
	}
	return id
}

func registerExternalSignature(ext *ast.ExternalDecl, tab *symtab.Table, bag *diag.Bag) symtab.ID {
	t := resolveTypeExpr(ext.Type, tab, bag)
	id, err := tab.InsertSignal(ext.Name, symtab.NoScope, t, true, 0, ext.Loc)
	if err != nil {
		bag.Add(diag.DuplicateName, ext.Loc, "%v", err)
	}
	return id
}

func registerFunctionSignature(fn *ast.Function, tab *symtab.Table, bag *diag.Bag) symtab.ID {
	inputs := make([]*types.Type, 0, len(fn.Params))
	tab.Local()
	for _, p := range fn.Params {
		t := resolveTypeExpr(p.Type, tab, bag)
		inputs = append(inputs, t)
		if _, err := tab.InsertSignal(p.Name, symtab.Input, t, true, 0, fn.Loc); err != nil {
			bag.Add(diag.DuplicateName, fn.Loc, "%v", err)
		}
	}
	out := resolveTypeExpr(fn.ReturnType, tab, bag)
	tab.Global()

	abstract := types.NewAbstract(inputs, out)
	id, err := tab.InsertFunction(fn.Name, abstract, 0, fn.Loc)
	if err != nil {
		bag.Add(diag.DuplicateName, fn.Loc, "%v", err)
	}
	tab.SaveContext(id)
	return id
}

func lowerFunctionBody(fn *ast.Function, id symtab.ID, tab *symtab.Table, bag *diag.Bag) *hir.Function {
	restore, err := tab.RestoreContext(id)
	if err != nil {
		bag.Add(diag.Unsupported, fn.Loc, "%v", err)
		return nil
	}
	defer restore()

	abstract := tab.Entry(id).Type
	params := make([]symtab.ID, 0, len(fn.Params))
	for _, p := range fn.Params {
		pid, ok := tab.GetSignalIDIfBound(p.Name)
		if !ok {
			bag.Add(diag.UnknownSignal, fn.Loc, "parameter %q lost its binding", p.Name)
			continue
		}
		params = append(params, pid)
	}
	body := lowerExpr(fn.Body, tab, bag)
	return &hir.Function{ID: id, Params: params, ReturnType: abstract.Output, Body: body, Loc: fn.Loc}
}
