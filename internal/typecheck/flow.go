package typecheck

import (
	"fmt"

	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// CheckInterface type-checks every flow of one interface block, in
// declaration order so a flow's type is available before a later flow
// references it (spec.md §4.7 "rule 6" ordering also used for timer
// tie-breaks).
func CheckInterface(ifc *hir.Interface, tab *symtab.Table, bag *diag.Bag) {
	for _, id := range ifc.Order {
		f := ifc.Flows[id]
		if f.Expr == nil {
			continue // pure import: type comes from outside
		}
		t := InferFlow(f.Expr, tab, bag)
		entry := tab.Entry(id)
		if entry.Type == nil || types.IsPlaceholder(entry.Type) {
			entry.Type = t
		} else if !types.Equal(entry.Type, t) {
			bag.Add(diag.IncompatibleType, f.Loc, "flow %q declared as %s, defined as %s", f.Name, entry.Type, t)
		}
		f.Type = entry.Type
	}
}

// InferFlow assigns fe.Type bottom-up over the FlowExpr tree.
func InferFlow(fe *hir.FlowExpr, tab *symtab.Table, bag *diag.Bag) *types.Type {
	if fe == nil {
		return types.TUnit
	}
	switch fe.Kind {
	case hir.FIdent:
		fe.Type = tab.Entry(fe.FlowID).Type

	case hir.FPeriod:
		fe.Type = types.NewSignal(types.TTime)

	case hir.FSample, hir.FScan:
		base := InferFlow(fe.Base, tab, bag)
		fe.Type = requireKind(base, types.Signal, fe.Loc, bag, "sample/scan")

	case hir.FSampleOn, hir.FScanOn:
		base := InferFlow(fe.Base, tab, bag)
		InferFlow(fe.EventFlow, tab, bag)
		fe.Type = requireKind(base, types.Signal, fe.Loc, bag, "sample_on/scan_on")

	case hir.FTimeout:
		base := InferFlow(fe.Base, tab, bag)
		fe.Type = types.NewTimeout(elemOf(base))

	case hir.FThrottle:
		// Delta == 0 is the identity case (SPEC_FULL.md §9 Open Question
		// (b)): the type rule is unaffected either way.
		base := InferFlow(fe.Base, tab, bag)
		fe.Type = base

	case hir.FOnChange, hir.FPersist:
		fe.Type = InferFlow(fe.Base, tab, bag)

	case hir.FMerge:
		if len(fe.Flows) < 2 {
			bag.Add(diag.IncompatibleInputsNumber, fe.Loc, "merge needs at least 2 flows, got %d", len(fe.Flows))
		}
		var elem *types.Type
		for i, f := range fe.Flows {
			t := InferFlow(f, tab, bag)
			e := elemOf(t)
			if i == 0 {
				elem = e
			} else if !types.Equal(elem, e) {
				bag.Add(diag.IncompatibleType, fe.Loc, "merge operand %d carries %s, expected %s", i, e, elem)
			}
		}
		if elem == nil {
			elem = types.TAny
		}
		fe.Type = types.NewEvent(elem)

	case hir.FZip:
		if len(fe.Flows) < 2 {
			bag.Add(diag.IncompatibleInputsNumber, fe.Loc, "zip needs at least 2 flows, got %d", len(fe.Flows))
		}
		elems := make([]*types.Type, 0, len(fe.Flows))
		for _, f := range fe.Flows {
			elems = append(elems, elemOf(InferFlow(f, tab, bag)))
		}
		fe.Type = types.NewSignal(types.NewTuple(elems...))

	case hir.FComponentCall:
		fe.Type = checkComponentCall(fe, tab, bag)

	default:
		bag.Add(diag.Unsupported, fe.Loc, "unsupported flow expression kind")
		fe.Type = types.TAny
	}
	return fe.Type
}

func elemOf(t *types.Type) *types.Type {
	if t == nil {
		return types.TAny
	}
	switch t.Kind {
	case types.Signal, types.Event, types.Timeout, types.SMEvent, types.SMTimeout:
		return t.Elem
	default:
		return t
	}
}

func requireKind(t *types.Type, want types.Kind, loc diag.Location, bag *diag.Bag, op string) *types.Type {
	if t == nil || t.Kind != want {
		bag.Add(diag.IncompatibleType, loc, "%s expects a %s, got %s", op, want, t)
		return types.NewSignal(types.TAny)
	}
	return t
}

// checkComponentCall checks arity and applies the interface-to-component
// conversion rule to each input: a Signal(T)/Event(T)/Timeout(T) flow
// feeding a plain-T component input converts to T/SMEvent(T)/SMTimeout(T)
// respectively; anything else fails closed with
// UnsupportedFlowConversion (spec.md §9 Open Question (c): never an
// unreachable panic).
func checkComponentCall(fe *hir.FlowExpr, tab *symtab.Table, bag *diag.Bag) *types.Type {
	inputs := tab.NodeInputs(fe.ComponentID)
	if len(inputs) != len(fe.Inputs) {
		bag.Add(diag.IncompatibleInputsNumber, fe.Loc, "component call expects %d inputs, got %d", len(inputs), len(fe.Inputs))
	}
	n := len(inputs)
	if len(fe.Inputs) < n {
		n = len(fe.Inputs)
	}
	for i := 0; i < n; i++ {
		flowT := InferFlow(fe.Inputs[i], tab, bag)
		wantT := tab.Entry(inputs[i]).Type
		if _, err := convertFlowToComponentInput(flowT, wantT); err != nil {
			bag.Add(diag.UnsupportedFlowConversion, fe.Loc, "%v", err)
		}
	}
	for i := n; i < len(fe.Inputs); i++ {
		InferFlow(fe.Inputs[i], tab, bag)
	}
	if fe.OutputID == 0 {
		return types.TAny
	}
	return types.NewSignal(tab.Entry(fe.OutputID).Type)
}

func convertFlowToComponentInput(flowT, wantT *types.Type) (*types.Type, error) {
	if flowT == nil || wantT == nil {
		return nil, fmt.Errorf("no conversion rule for a nil type")
	}
	switch flowT.Kind {
	case types.Signal:
		if types.Equal(flowT.Elem, wantT) {
			return wantT, nil
		}
	case types.Event:
		if types.Equal(flowT.Elem, wantT) {
			return types.NewSMEvent(wantT), nil
		}
	case types.Timeout:
		if types.Equal(flowT.Elem, wantT) {
			return types.NewSMTimeout(wantT), nil
		}
	}
	return nil, fmt.Errorf("no conversion rule from flow type %s to component input type %s", flowT, wantT)
}
