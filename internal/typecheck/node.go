package typecheck

import (
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// CheckNode type-checks every equation and contract term of one node,
// reporting diagnostics for any mismatch but never stopping at the first
// one (spec.md §4.8).
func CheckNode(node *hir.Node, tab *symtab.Table, bag *diag.Bag) {
	for i := range node.Equations {
		checkEquation(&node.Equations[i], tab, bag)
	}
	CheckContract(node.Contract, tab, bag)
}

func checkEquation(eq *hir.Equation, tab *symtab.Table, bag *diag.Bag) {
	switch eq.Kind {
	case hir.MatchEq:
		Infer(eq.Scrutinee, tab, bag)
		var result *types.Type
		for i, arm := range eq.Arms {
			if arm.Guard != nil {
				if gt := Infer(arm.Guard, tab, bag); gt.Kind != types.Boolean {
					bag.Add(diag.IncompatibleType, eq.Loc, "match guard has type %s, expected bool", gt)
				}
			}
			bt := Infer(arm.Body, tab, bag)
			if i == 0 {
				result = bt
			} else if !types.Equal(result, bt) {
				bag.Add(diag.IncompatibleType, eq.Loc, "match arm %d has type %s, expected %s", i, bt, result)
			}
		}
		checkTargets(eq, result, tab, bag)

	case hir.WhenEq:
		var result *types.Type
		for i, arm := range eq.Arms {
			bt := Infer(arm.Body, tab, bag)
			if i == 0 {
				result = bt
			} else if !types.Equal(result, bt) {
				bag.Add(diag.IncompatibleType, eq.Loc, "when arm %d has type %s, expected %s", i, bt, result)
			}
		}
		checkTargets(eq, result, tab, bag)

	default: // LocalDef, OutputDef, InitSignal
		t := Infer(eq.Expr, tab, bag)
		checkTargets(eq, t, tab, bag)
	}

	for tgt, declared := range eq.DeclaredTypes {
		actual := tab.Entry(tgt).Type
		if actual != nil && declared != nil && !types.IsPlaceholder(actual) && !types.Equal(actual, declared) {
			bag.Add(diag.IncompatibleType, eq.Loc, "%q declared as %s, defined as %s", tab.Entry(tgt).Name, declared, actual)
		}
	}
}

// checkTargets assigns rhsType to every one-target equation's signal
// entry and checks a multi-target (tuple-destructuring) equation's
// target count and per-element type against a Tuple rhsType.
func checkTargets(eq *hir.Equation, rhsType *types.Type, tab *symtab.Table, bag *diag.Bag) {
	if rhsType == nil {
		rhsType = types.TAny
	}
	if len(eq.Targets) == 1 {
		entry := tab.Entry(eq.Targets[0])
		if entry.Type == nil || types.IsPlaceholder(entry.Type) {
			entry.Type = rhsType
		} else if !types.Equal(entry.Type, rhsType) {
			bag.Add(diag.IncompatibleType, eq.Loc, "%q has declared type %s, defined as %s", entry.Name, entry.Type, rhsType)
		}
		return
	}
	if rhsType.Kind != types.Tuple || len(rhsType.Elems) != len(eq.Targets) {
		bag.Add(diag.IncompatibleInputsNumber, eq.Loc, "destructuring %d targets from %s", len(eq.Targets), rhsType)
		return
	}
	for i, tgt := range eq.Targets {
		entry := tab.Entry(tgt)
		elemT := rhsType.Elems[i]
		if entry.Type == nil || types.IsPlaceholder(entry.Type) {
			entry.Type = elemT
		} else if !types.Equal(entry.Type, elemT) {
			bag.Add(diag.IncompatibleType, eq.Loc, "%q has declared type %s, defined as %s", entry.Name, entry.Type, elemT)
		}
	}
}

// CheckContract type-checks a node's requires/ensures/invariant terms,
// each of which must be Boolean-valued (SPEC_FULL.md §10).
func CheckContract(c hir.Contract, tab *symtab.Table, bag *diag.Bag) {
	checkTerms(c.Requires, tab, bag)
	checkTerms(c.Ensures, tab, bag)
	checkTerms(c.Invariant, tab, bag)
}

func checkTerms(ts []*hir.Term, tab *symtab.Table, bag *diag.Bag) {
	for _, t := range ts {
		if tt := inferTerm(t, tab, bag); tt.Kind != types.Boolean {
			bag.Add(diag.IncompatibleType, t.Loc, "contract term has type %s, expected bool", tt)
		}
	}
}

func inferTerm(t *hir.Term, tab *symtab.Table, bag *diag.Bag) *types.Type {
	if t == nil {
		return types.TBoolean
	}
	switch t.Kind {
	case hir.TAnd, hir.TOr, hir.TEventImplication:
		for _, c := range t.Children {
			if ct := inferTerm(c, tab, bag); ct.Kind != types.Boolean {
				bag.Add(diag.IncompatibleType, t.Loc, "logical operand has type %s, expected bool", ct)
			}
		}
		t.Type = types.TBoolean
	case hir.TNot:
		inferTerm(t.Operand, tab, bag)
		t.Type = types.TBoolean
	case hir.TForall:
		inferTerm(t.Body, tab, bag)
		t.Type = types.TBoolean
	case hir.TApplication:
		fnT := tab.Entry(t.Fun).Type
		for i, a := range t.Args {
			at := inferTerm(a, tab, bag)
			if fnT != nil && fnT.Kind == types.Abstract && i < len(fnT.Inputs) && !types.Equal(at, fnT.Inputs[i]) {
				bag.Add(diag.IncompatibleType, t.Loc, "contract call argument %d has type %s, expected %s", i, at, fnT.Inputs[i])
			}
		}
		if fnT != nil && fnT.Kind == types.Abstract {
			t.Type = fnT.Output
		} else {
			t.Type = types.TAny
		}
	case hir.TBinaryOp:
		lt := inferTerm(t.LHS, tab, bag)
		rt := inferTerm(t.RHS, tab, bag)
		switch t.Op {
		case "=", "!=", "<", "<=", ">", ">=":
			if !types.Equal(lt, rt) {
				bag.Add(diag.IncompatibleType, t.Loc, "comparison operands disagree: %s vs %s", lt, rt)
			}
			t.Type = types.TBoolean
		default:
			if !types.Equal(lt, rt) {
				bag.Add(diag.IncompatibleType, t.Loc, "arithmetic operands disagree: %s vs %s", lt, rt)
			}
			t.Type = lt
		}
	case hir.TUnaryOp:
		t.Type = inferTerm(t.LHS, tab, bag)
	case hir.TConstant:
		t.Type = constType(t.Const)
	case hir.TIdentifier, hir.TLast:
		t.Type = tab.Entry(t.ID).Type
	case hir.TResult:
		t.Type = types.TAny // bound to the node's own output by the caller's context
	default:
		bag.Add(diag.Unsupported, t.Loc, "unsupported contract term kind")
		t.Type = types.TAny
	}
	return t.Type
}
