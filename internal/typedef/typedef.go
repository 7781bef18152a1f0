package typedef

import (
	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/lower"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// resolver threads the per-compile alias-cycle detection state through
// every substitution site, so a cycle is reported exactly once no matter
// how many places reference the offending alias.
type resolver struct {
	byName   map[string]*ast.Typedef
	ids      map[string]symtab.ID
	resolved map[string]*types.Type
	visiting map[string]bool
	tab      *symtab.Table
	bag      *diag.Bag
}

// Resolve runs spec.md §4.4 over every typedef in file: populates each
// struct/enum entry's field/element list, resolves pure alias chains to
// their concrete target (reporting CyclicType on a cycle — struct/enum
// typedefs are reference types, so a struct naming itself is not a
// sizing cycle the way an alias chain is, per spec.md §4.4's "detects
// cycles of pure aliases"), then walks every symtab entry substituting
// every remaining NotDefinedYet(name) placeholder with its typedef's
// now-concrete type.
func Resolve(file *ast.File, tab *symtab.Table, bag *diag.Bag) {
	r := &resolver{
		byName:   map[string]*ast.Typedef{},
		ids:      map[string]symtab.ID{},
		resolved: map[string]*types.Type{},
		visiting: map[string]bool{},
		tab:      tab,
		bag:      bag,
	}
	for _, it := range file.Items {
		if it.Kind != ast.ITypedef {
			continue
		}
		td := it.Typedef
		id, err := tab.GetTypedefID(td.Name, td.Loc)
		if err != nil {
			bag.Add(diag.Unsupported, td.Loc, "%v", err)
			continue
		}
		r.byName[td.Name] = td
		r.ids[td.Name] = id
	}

	for name, td := range r.byName {
		switch {
		case td.IsStruct:
			fields := make([]symtab.FieldDef, 0, len(td.Fields))
			for _, p := range td.Fields {
				fields = append(fields, symtab.FieldDef{Name: p.Name, Type: lower.ResolveTypeExpr(p.Type, tab, bag)})
			}
			tab.Entry(r.ids[name]).Fields = fields
		case td.IsEnum:
			tab.Entry(r.ids[name]).Elements = append([]string{}, td.Elements...)
		}
	}

	for name := range r.byName {
		r.resolve(name)
	}

	// A struct field's type may itself have been a forward reference
	// (NotDefinedYet) at the point it was resolved above, so substitute
	// those too now that every alias/struct/enum name is settled.
	for name, td := range r.byName {
		if !td.IsStruct {
			continue
		}
		fields := tab.Entry(r.ids[name]).Fields
		for i := range fields {
			fields[i].Type = r.substitute(fields[i].Type)
		}
	}

	for id := 1; id <= tab.Len(); id++ {
		e := tab.Entry(symtab.ID(id))
		e.Type = r.substitute(e.Type)
	}
}

// resolve returns name's concrete type, driving cycle-aware alias
// resolution on demand.
func (r *resolver) resolve(name string) *types.Type {
	if t, ok := r.resolved[name]; ok {
		return t
	}
	td, ok := r.byName[name]
	if !ok {
		return types.NewNotDefinedYet(name) // unknown type name: left for typecheck to flag
	}
	id := r.ids[name]
	if td.IsStruct || td.IsEnum {
		t := r.tab.Entry(id).Type
		r.resolved[name] = t
		return t
	}

	if r.visiting[name] {
		r.bag.Add(diag.CyclicType, td.Loc, "cyclic alias chain involving %q", name)
		r.resolved[name] = types.TAny
		return types.TAny
	}
	r.visiting[name] = true
	raw := lower.ResolveTypeExpr(td.Alias, r.tab, r.bag)
	t := r.substitute(raw)
	delete(r.visiting, name)

	r.resolved[name] = t
	r.tab.Entry(id).Type = t
	return t
}

// substitute replaces every NotDefinedYet(name) node in t, recursively.
func (r *resolver) substitute(t *types.Type) *types.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case types.NotDefinedYet:
		return r.resolve(t.Name)
	case types.Array:
		return types.NewArray(r.substitute(t.Elem), t.Len)
	case types.Tuple:
		elems := make([]*types.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = r.substitute(e)
		}
		return types.NewTuple(elems...)
	case types.Abstract:
		inputs := make([]*types.Type, len(t.Inputs))
		for i, in := range t.Inputs {
			inputs[i] = r.substitute(in)
		}
		return types.NewAbstract(inputs, r.substitute(t.Output))
	case types.Signal:
		return types.NewSignal(r.substitute(t.Elem))
	case types.Event:
		return types.NewEvent(r.substitute(t.Elem))
	case types.Timeout:
		return types.NewTimeout(r.substitute(t.Elem))
	case types.SMEvent:
		return types.NewSMEvent(r.substitute(t.Elem))
	case types.SMTimeout:
		return types.NewSMTimeout(r.substitute(t.Elem))
	default:
		return t
	}
}
