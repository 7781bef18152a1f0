package lower

import (
	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// resolveTypeExpr turns a raw TypeExpr into a types.Type. Named types
// that are not yet known (forward reference to a struct/enum/alias
// declared later in the file) become NotDefinedYet placeholders for
// internal/typedef to resolve once every typedef has been seen.
func resolveTypeExpr(te *ast.TypeExpr, tab *symtab.Table, bag *diag.Bag) *types.Type {
	if te == nil {
		return types.TUnit
	}
	switch te.Kind {
	case ast.TEInt:
		return types.TInteger
	case ast.TEFloat:
		return types.TFloat
	case ast.TEBool:
		return types.TBoolean
	case ast.TEUnit:
		return types.TUnit
	case ast.TETime:
		return types.TTime
	case ast.TEArray:
		return types.NewArray(resolveTypeExpr(te.Elem, tab, bag), te.Len)
	case ast.TETuple:
		elems := make([]*types.Type, len(te.Elems))
		for i, e := range te.Elems {
			elems[i] = resolveTypeExpr(e, tab, bag)
		}
		return types.NewTuple(elems...)
	case ast.TENamed:
		return types.NewNotDefinedYet(te.Name)
	case ast.TEGeneric:
		return types.NewGeneric(te.Name)
	case ast.TESignal:
		return types.NewSignal(resolveTypeExpr(te.Elem, tab, bag))
	case ast.TEEvent:
		return types.NewEvent(resolveTypeExpr(te.Elem, tab, bag))
	case ast.TETimeout:
		return types.NewTimeout(resolveTypeExpr(te.Elem, tab, bag))
	default:
		bag.Add(diag.Unsupported, te.Loc, "unsupported type expression")
		return types.TAny
	}
}

// ResolveTypeExpr is the exported entry point internal/typedef uses to
// resolve a struct field's or alias's declared type the same way this
// package resolves a signal's.
func ResolveTypeExpr(te *ast.TypeExpr, tab *symtab.Table, bag *diag.Bag) *types.Type {
	return resolveTypeExpr(te, tab, bag)
}
