package typecheck

import (
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// Infer assigns e.Type (and every sub-expression's Type) bottom-up,
// specializing each Polymorphic operator reference to a concrete
// Abstract type at its call site. It never returns nil: on failure it
// reports a diagnostic and assigns types.TAny, so a caller can keep
// checking the rest of the tree (spec.md §4.8 "accumulate, never stop").
func Infer(e *hir.Expr, tab *symtab.Table, bag *diag.Bag) *types.Type {
	if e == nil {
		return types.TUnit
	}
	switch e.Kind {
	case hir.KConstant:
		e.Type = constType(e.Const)

	case hir.KIdentifier:
		e.Type = tab.Entry(e.ID).Type

	case hir.KApplication:
		e.Type = inferApplication(e, tab, bag)

	case hir.KLambda:
		for i, p := range e.Params {
			_ = i
			_ = tab.Entry(p).Type // bound by internal/lower at parameter insertion
		}
		out := Infer(e.Body, tab, bag)
		inputs := make([]*types.Type, len(e.Params))
		for i, p := range e.Params {
			inputs[i] = tab.Entry(p).Type
		}
		e.Type = types.NewAbstract(inputs, out)

	case hir.KStructure:
		for _, name := range e.FieldOrder {
			ft := Infer(e.Fields[name], tab, bag)
			if want, ok := tab.FieldType(symtab.ID(e.TypeID), name); ok && !types.Equal(want, ft) {
				bag.Add(diag.IncompatibleType, e.Loc, "field %q has type %s, expected %s", name, ft, want)
			} else if !ok {
				bag.Add(diag.UnknownField, e.Loc, "no field %q on %s", name, tab.Entry(symtab.ID(e.TypeID)).Name)
			}
		}
		e.Type = tab.Entry(symtab.ID(e.TypeID)).Type

	case hir.KEnumeration:
		if _, ok := tab.ElementIndex(symtab.ID(e.EnumID), e.ElemName); ok {
			e.Type = tab.Entry(symtab.ID(e.EnumID)).Type
		} else {
			bag.Add(diag.UnknownField, e.Loc, "no element %q on %s", e.ElemName, tab.Entry(symtab.ID(e.EnumID)).Name)
			e.Type = types.TAny
		}

	case hir.KArray:
		var elem *types.Type = types.TAny
		for i, el := range e.Elements {
			t := Infer(el, tab, bag)
			if i == 0 {
				elem = t
			} else if !types.Equal(elem, t) {
				bag.Add(diag.IncompatibleType, e.Loc, "array element %d has type %s, expected %s", i, t, elem)
			}
		}
		e.Type = types.NewArray(elem, len(e.Elements))

	case hir.KMatch:
		Infer(e.Scrutinee, tab, bag)
		var result *types.Type
		for i, arm := range e.Arms {
			if arm.Guard != nil {
				if gt := Infer(arm.Guard, tab, bag); gt.Kind != types.Boolean {
					bag.Add(diag.IncompatibleType, e.Loc, "match guard has type %s, expected bool", gt)
				}
			}
			bt := Infer(arm.Body, tab, bag)
			if i == 0 {
				result = bt
			} else if !types.Equal(result, bt) {
				bag.Add(diag.IncompatibleType, e.Loc, "match arm %d has type %s, expected %s", i, bt, result)
			}
		}
		if result == nil {
			result = types.TAny
		}
		e.Type = result

	case hir.KFieldAccess:
		base := Infer(e.Base, tab, bag)
		if base.Kind != types.Structure {
			bag.Add(diag.ExpectStructure, e.Loc, "field access on non-structure type %s", base)
			e.Type = types.TAny
			break
		}
		ft, ok := tab.FieldType(symtab.ID(base.ID), e.FieldName)
		if !ok {
			bag.Add(diag.UnknownField, e.Loc, "no field %q on %s", e.FieldName, base)
			e.Type = types.TAny
			break
		}
		e.Type = ft

	case hir.KTupleAccess:
		base := Infer(e.Base, tab, bag)
		if base.Kind != types.Tuple {
			bag.Add(diag.IncompatibleType, e.Loc, "tuple access on non-tuple type %s", base)
			e.Type = types.TAny
			break
		}
		if e.Index < 0 || e.Index >= len(base.Elems) {
			bag.Add(diag.IncompatibleType, e.Loc, "tuple index %d out of range for %s", e.Index, base)
			e.Type = types.TAny
			break
		}
		e.Type = base.Elems[e.Index]

	case hir.KWhen:
		optT := tab.Entry(e.OptionID).Type
		present := Infer(e.Present, tab, bag)
		def := Infer(e.Default, tab, bag)
		if optT != nil && optT.Kind != types.Event && optT.Kind != types.Signal && optT.Kind != types.Timeout {
			bag.Add(diag.ExpectOption, e.Loc, "when on non-option-valued signal of type %s", optT)
		}
		if !types.Equal(present, def) {
			bag.Add(diag.IncompatibleType, e.Loc, "when branches disagree: %s vs %s", present, def)
		}
		e.Type = present

	case hir.KMap:
		coll := Infer(e.Coll, tab, bag)
		fn := Infer(e.MapFn, tab, bag)
		if coll.Kind != types.Array {
			bag.Add(diag.ExpectArray, e.Loc, "map over non-array type %s", coll)
			e.Type = types.TAny
			break
		}
		if fn.Kind != types.Abstract || len(fn.Inputs) != 1 || !types.Equal(fn.Inputs[0], coll.Elem) {
			bag.Add(diag.ExpectAbstraction, e.Loc, "map function has type %s, expected (%s) -> _", fn, coll.Elem)
			e.Type = types.TAny
			break
		}
		e.Type = types.NewArray(fn.Output, coll.Len)

	case hir.KFold:
		coll := Infer(e.Coll, tab, bag)
		acc := Infer(e.FoldAcc, tab, bag)
		fn := Infer(e.FoldFn, tab, bag)
		if coll.Kind != types.Array {
			bag.Add(diag.ExpectArray, e.Loc, "fold over non-array type %s", coll)
			e.Type = types.TAny
			break
		}
		if fn.Kind != types.Abstract || len(fn.Inputs) != 2 || !types.Equal(fn.Inputs[0], acc) || !types.Equal(fn.Inputs[1], coll.Elem) {
			bag.Add(diag.ExpectAbstraction, e.Loc, "fold function has type %s, expected (%s, %s) -> %s", fn, acc, coll.Elem, acc)
			e.Type = types.TAny
			break
		}
		if !types.Equal(fn.Output, acc) {
			bag.Add(diag.IncompatibleType, e.Loc, "fold function returns %s, expected accumulator type %s", fn.Output, acc)
		}
		e.Type = acc

	case hir.KSort:
		coll := Infer(e.Coll, tab, bag)
		fn := Infer(e.SortFn, tab, bag)
		if coll.Kind != types.Array {
			bag.Add(diag.ExpectArray, e.Loc, "sort over non-array type %s", coll)
			e.Type = types.TAny
			break
		}
		if fn.Kind != types.Abstract || len(fn.Inputs) != 2 || fn.Output.Kind != types.Boolean {
			bag.Add(diag.ExpectAbstraction, e.Loc, "sort comparator has type %s, expected (%s, %s) -> bool", fn, coll.Elem, coll.Elem)
		}
		e.Type = coll

	case hir.KZip:
		elems := make([]*types.Type, 0, len(e.Args))
		for _, a := range e.Args {
			elems = append(elems, Infer(a, tab, bag))
		}
		if len(elems) < 2 {
			bag.Add(diag.IncompatibleInputsNumber, e.Loc, "zip needs at least 2 operands, got %d", len(elems))
		}
		e.Type = types.NewTuple(elems...)

	case hir.KIf:
		cond := Infer(e.Cond, tab, bag)
		then := Infer(e.Then, tab, bag)
		els := Infer(e.Else, tab, bag)
		if cond.Kind != types.Boolean {
			bag.Add(diag.IncompatibleType, e.Loc, "if condition has type %s, expected bool", cond)
		}
		if !types.Equal(then, els) {
			bag.Add(diag.IncompatibleType, e.Loc, "if branches disagree: %s vs %s", then, els)
		}
		e.Type = then

	case hir.KFollowedBy:
		init := Infer(e.Init, tab, bag)
		next := Infer(e.Next, tab, bag)
		if !types.Equal(init, next) {
			bag.Add(diag.IncompatibleType, e.Loc, "fby initializer has type %s, continuation has type %s", init, next)
		}
		e.Type = init

	case hir.KLast:
		e.Type = Infer(e.Inner, tab, bag)

	case hir.KNodeApplication, hir.KUnitaryNodeApplication:
		e.Type = inferNodeApplication(e, tab, bag)

	case hir.KEmit:
		inner := Infer(e.Inner, tab, bag)
		e.Type = types.NewEvent(inner)

	case hir.KReactiveWhen:
		var result *types.Type
		for i, arm := range e.WhenArms {
			if arm.BindID != 0 {
				// payload type is whatever the event element carries; left to
				// the enclosing event enum's element type, already bound.
				_ = tab.Entry(arm.BindID)
			}
			bt := Infer(arm.Body, tab, bag)
			if i == 0 {
				result = bt
			} else if !types.Equal(result, bt) {
				bag.Add(diag.IncompatibleType, e.Loc, "reactive when arm %d has type %s, expected %s", i, bt, result)
			}
		}
		if e.InitialArm != nil {
			bt := Infer(e.InitialArm.Body, tab, bag)
			if result != nil && !types.Equal(result, bt) {
				bag.Add(diag.IncompatibleType, e.Loc, "reactive when initial arm has type %s, expected %s", bt, result)
			}
			if result == nil {
				result = bt
			}
		}
		if result == nil {
			result = types.TUnit
		}
		e.Type = result

	default:
		bag.Add(diag.Unsupported, e.Loc, "type inference not implemented for this expression kind")
		e.Type = types.TAny
	}
	return e.Type
}

func constType(c hir.Constant) *types.Type {
	switch {
	case c.IsInt:
		return types.TInteger
	case c.IsFloat:
		return types.TFloat
	case c.IsBool:
		return types.TBoolean
	case c.IsTime:
		return types.TTime
	default:
		return types.TUnit
	}
}

// inferApplication specializes a Polymorphic callee's Resolver at this
// call site (spec.md §4.3), or checks a user function/lambda's Abstract
// signature directly.
func inferApplication(e *hir.Expr, tab *symtab.Table, bag *diag.Bag) *types.Type {
	args := make([]*types.Type, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, Infer(a, tab, bag))
	}

	var calleeType *types.Type
	if e.Fun.Kind == hir.KIdentifier {
		calleeType = tab.Entry(e.Fun.ID).Type
	} else {
		calleeType = Infer(e.Fun, tab, bag)
	}
	e.Fun.Type = calleeType

	switch calleeType.Kind {
	case types.Polymorphic:
		specialized, err := calleeType.Resolve(args, e.Loc)
		if err != nil {
			bag.Add(diag.IncompatibleType, e.Loc, "%v", err)
			return types.TAny
		}
		e.Fun.Type = specialized
		return specialized.Output
	case types.Abstract:
		if len(calleeType.Inputs) != len(args) {
			bag.Add(diag.IncompatibleInputsNumber, e.Loc, "expected %d arguments, got %d", len(calleeType.Inputs), len(args))
			return types.TAny
		}
		for i, want := range calleeType.Inputs {
			if !types.Equal(want, args[i]) {
				bag.Add(diag.IncompatibleType, e.Loc, "argument %d has type %s, expected %s", i, args[i], want)
			}
		}
		return calleeType.Output
	default:
		bag.Add(diag.ExpectAbstraction, e.Loc, "cannot call value of type %s", calleeType)
		return types.TAny
	}
}

// inferNodeApplication checks arity and positional argument types against
// the callee's registered signature (spec.md §4.3 "node call") and
// resolves the result to the named output's declared type.
func inferNodeApplication(e *hir.Expr, tab *symtab.Table, bag *diag.Bag) *types.Type {
	inputs := tab.NodeInputs(e.NodeID)
	if len(inputs) != len(e.Args) {
		bag.Add(diag.IncompatibleInputsNumber, e.Loc, "node call expects %d arguments, got %d", len(inputs), len(e.Args))
	}
	n := len(inputs)
	if len(e.Args) < n {
		n = len(e.Args)
	}
	for i := 0; i < n; i++ {
		argT := Infer(e.Args[i], tab, bag)
		wantT := tab.Entry(inputs[i]).Type
		if !types.Equal(argT, wantT) {
			bag.Add(diag.IncompatibleType, e.Loc, "argument %d has type %s, expected %s", i, argT, wantT)
		}
	}
	for i := n; i < len(e.Args); i++ {
		Infer(e.Args[i], tab, bag)
	}
	if e.OutputID == 0 {
		return types.TAny
	}
	return tab.Entry(e.OutputID).Type
}
