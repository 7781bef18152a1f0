package lower

import (
	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
)

// lowerContract lowers a raw Contract, desugaring every Implication term
// along the way.
func lowerContract(c ast.Contract, tab *symtab.Table, bag *diag.Bag) hir.Contract {
	return hir.Contract{
		Requires:  lowerTerms(c.Requires, tab, bag),
		Ensures:   lowerTerms(c.Ensures, tab, bag),
		Invariant: lowerTerms(c.Invariant, tab, bag),
	}
}

func lowerTerms(ts []*ast.Term, tab *symtab.Table, bag *diag.Bag) []*hir.Term {
	out := make([]*hir.Term, 0, len(ts))
	for _, t := range ts {
		out = append(out, lowerTerm(t, tab, bag))
	}
	return out
}

// lowerTerm desugars `A ⇒ B` into `(A ∧ B) ∨ ¬A` (spec.md §4.2): downstream
// passes only ever see And/Or/Not/Application/BinaryOp/UnaryOp/Constant/
// Identifier/Last/Result, never a dedicated Implication node.
func lowerTerm(t *ast.Term, tab *symtab.Table, bag *diag.Bag) *hir.Term {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast.TmImplication:
		a := lowerTerm(t.Antecedent, tab, bag)
		b := lowerTerm(t.Consequent, tab, bag)
		aAndB := &hir.Term{Kind: hir.TAnd, Loc: t.Loc, Children: []*hir.Term{a, b}}
		notA := &hir.Term{Kind: hir.TNot, Loc: t.Loc, Operand: a}
		return &hir.Term{Kind: hir.TOr, Loc: t.Loc, Children: []*hir.Term{aAndB, notA}}
	case ast.TmAnd:
		return &hir.Term{Kind: hir.TAnd, Loc: t.Loc, Children: lowerTerms(t.Children, tab, bag)}
	case ast.TmOr:
		return &hir.Term{Kind: hir.TOr, Loc: t.Loc, Children: lowerTerms(t.Children, tab, bag)}
	case ast.TmNot:
		return &hir.Term{Kind: hir.TNot, Loc: t.Loc, Operand: lowerTerm(t.Operand, tab, bag)}
	case ast.TmEventImplication:
		return &hir.Term{Kind: hir.TEventImplication, Loc: t.Loc, Children: lowerTerms(t.Children, tab, bag)}
	case ast.TmForall:
		var bt = resolveTypeExpr(t.BoundType, tab, bag)
		return &hir.Term{
			Kind: hir.TForall, Loc: t.Loc,
			BoundName: t.BoundName, BoundType: bt,
			Body: lowerTerm(t.Body, tab, bag),
		}
	case ast.TmApplication:
		id, err := tab.GetFunctionID(t.FunName, t.Loc)
		if err != nil {
			bag.Add(diag.UnknownFunction, t.Loc, "%v", err)
		}
		return &hir.Term{Kind: hir.TApplication, Loc: t.Loc, Fun: id, Args: lowerTerms(t.Args, tab, bag)}
	case ast.TmBinaryOp:
		return &hir.Term{Kind: hir.TBinaryOp, Loc: t.Loc, Op: t.Op, LHS: lowerTerm(t.LHS, tab, bag), RHS: lowerTerm(t.RHS, tab, bag)}
	case ast.TmUnaryOp:
		return &hir.Term{Kind: hir.TUnaryOp, Loc: t.Loc, Op: t.Op, LHS: lowerTerm(t.LHS, tab, bag)}
	case ast.TmConstant:
		e := lowerExprStandalone(t.ConstExpr, tab, bag)
		return &hir.Term{Kind: hir.TConstant, Loc: t.Loc, Const: e.Const}
	case ast.TmIdentifier:
		id, err := tab.GetSignalID(t.IdentName, t.Loc)
		if err != nil {
			bag.Add(diag.UnknownSignal, t.Loc, "%v", err)
		}
		return &hir.Term{Kind: hir.TIdentifier, Loc: t.Loc, ID: id}
	case ast.TmLast:
		id, err := tab.GetSignalID(t.IdentName, t.Loc)
		if err != nil {
			bag.Add(diag.UnknownSignal, t.Loc, "%v", err)
		}
		return &hir.Term{Kind: hir.TLast, Loc: t.Loc, ID: id}
	case ast.TmResult:
		return &hir.Term{Kind: hir.TResult, Loc: t.Loc}
	default:
		bag.Add(diag.Unsupported, t.Loc, "unsupported contract term")
		return &hir.Term{Kind: hir.TConstant, Loc: t.Loc}
	}
}
