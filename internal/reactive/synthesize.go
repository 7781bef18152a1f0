package reactive

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/plan"
	"github.com/langrust/grust/internal/symtab"
)

// Synthesize runs spec.md §4.7 over one interface, producing the service
// plan an external code emitter consumes. prog is consulted to find a
// called component's period (spec.md §4.7 step 2's service_timeout);
// bag receives diagnostics for anything the interface references that
// can't be resolved.
func Synthesize(iface *hir.Interface, prog *hir.Program, tab *symtab.Table, sessionID uuid.UUID, bag *diag.Bag) *plan.Artifact {
	art := &plan.Artifact{SessionID: sessionID}

	for _, id := range iface.Order {
		flow, ok := iface.Flows[id]
		if !ok {
			continue
		}
		switch {
		case flow.Path != "" && flow.Expr == nil:
			art.Inputs = append(art.Inputs, plan.InputSpec{
				Name:        flow.Name,
				Type:        flow.Type.String(),
				ResetsTimer: timeoutsOnArrival(iface, id),
			})
		case flow.Path != "" && flow.Expr != nil:
			art.Outputs = append(art.Outputs, plan.OutputSpec{
				Name: flow.Name,
				Type: flow.Type.String(),
				EmissionPoints: []plan.EmissionPoint{
					{Handler: handlerName(flow), EquationID: int(flow.ID)},
				},
			})
		}
		if flow.Expr != nil {
			synthesizeExpr(flow, flow.Expr, art, prog, tab, bag)
		}
	}
	sortHandlers(art)
	return art
}

// sortHandlers gives the emitted Handlers slice a name order independent
// of which flow happened to touch a shared handler first during the
// walk above — handler names are unique (derived 1:1 from flow names),
// so a name sort is a total, deterministic order.
func sortHandlers(art *plan.Artifact) {
	byName := make(map[string]plan.HandlerSpec, len(art.Handlers))
	for _, h := range art.Handlers {
		byName[h.Name] = h
	}
	names := maps.Keys(byName)
	sort.Strings(names)
	art.Handlers = art.Handlers[:0]
	for _, name := range names {
		art.Handlers = append(art.Handlers, byName[name])
	}
}

func handlerName(flow *hir.Flow) string { return flow.Name + "Handler" }

// timeoutsOnArrival reports whether some other flow in iface declares a
// per-event timeout on in (spec.md §4.7 step 4: Event(Timeout(T)) flows
// rearm their timer on every arrival of the underlying event), so that
// flow's InputSpec.ResetsTimer can be set accurately.
func timeoutsOnArrival(iface *hir.Interface, in symtab.ID) bool {
	for _, id := range iface.Order {
		flow := iface.Flows[id]
		if flow.Expr != nil && flow.Expr.Kind == hir.FTimeout && flow.Expr.Base != nil &&
			flow.Expr.Base.Kind == hir.FIdent && flow.Expr.Base.FlowID == in {
			return true
		}
	}
	return false
}

// synthesizeExpr walks one flow's defining expression tree, adding the
// timers and handler steps spec.md §4.7's combinators each require, then
// recursing into the combinator's operands.
func synthesizeExpr(flow *hir.Flow, e *hir.FlowExpr, art *plan.Artifact, prog *hir.Program, tab *symtab.Table, bag *diag.Bag) {
	if e == nil {
		return
	}
	handler := handlerName(flow)

	switch e.Kind {
	case hir.FSample, hir.FScan:
		timer := flow.Name + "_period"
		art.Timers = append(art.Timers, plan.TimerSpec{Name: timer, DurationMS: e.PeriodMS, ResetOnFire: true, Handler: handler})
		addStep(art, handler, plan.Step{Kind: plan.UpdateSignal, Signal: flow.ID, Expr: e})
		synthesizeExpr(flow, e.Base, art, prog, tab, bag)

	case hir.FSampleOn, hir.FScanOn:
		addStep(art, handler, plan.Step{Kind: plan.UpdateSignal, Signal: flow.ID, Expr: e})
		synthesizeExpr(flow, e.Base, art, prog, tab, bag)
		synthesizeExpr(flow, e.EventFlow, art, prog, tab, bag)

	case hir.FTimeout:
		timer := flow.Name + "_timeout"
		art.Timers = append(art.Timers, plan.TimerSpec{Name: timer, DurationMS: e.DeadlineMS, ResetOnFire: true, Handler: handler})
		addStep(art, handler, plan.Step{Kind: plan.ResetTimer, Timer: timer})
		synthesizeExpr(flow, e.Base, art, prog, tab, bag)

	case hir.FThrottle:
		// Open Question (b): throttle(e, 0) is the identity, no
		// suppression step — every arrival passes straight through.
		addStep(art, handler, plan.Step{Kind: plan.UpdateSignal, Signal: flow.ID, Expr: e})
		synthesizeExpr(flow, e.Base, art, prog, tab, bag)

	case hir.FOnChange, hir.FPersist:
		addStep(art, handler, plan.Step{Kind: plan.UpdateSignal, Signal: flow.ID, Expr: e})
		synthesizeExpr(flow, e.Base, art, prog, tab, bag)

	case hir.FMerge, hir.FZip:
		addStep(art, handler, plan.Step{Kind: plan.UpdateSignal, Signal: flow.ID, Expr: e})
		for _, f := range e.Flows {
			synthesizeExpr(flow, f, art, prog, tab, bag)
		}

	case hir.FComponentCall:
		inputs := make([]symtab.ID, 0, len(e.Inputs))
		for _, in := range e.Inputs {
			if in.Kind == hir.FIdent {
				inputs = append(inputs, in.FlowID)
			}
		}
		addStep(art, handler, plan.Step{
			Kind:          plan.StepNode,
			Unitary:       e.ComponentID,
			UnitaryOutput: e.OutputID,
			Inputs:        inputs,
			Outputs:       []symtab.ID{flow.ID},
		})
		if !tab.IsComponent(e.ComponentID) {
			bag.Add(diag.NodeCall, flow.Loc, "flow %q calls %q, which is not a component", flow.Name, tab.Entry(e.ComponentID).Name)
			break
		}
		if callee, ok := prog.Nodes[e.ComponentID]; ok && callee.PeriodMS != nil {
			timer := flow.Name + "_service_timeout"
			art.Timers = append(art.Timers, plan.TimerSpec{Name: timer, DurationMS: *callee.PeriodMS, ResetOnFire: true, Handler: handler})
			synthesizeDelay(flow, e, inputs, *callee.PeriodMS, art, tab)
		}
		for _, in := range e.Inputs {
			synthesizeExpr(flow, in, art, prog, tab, bag)
		}

	case hir.FIdent, hir.FPeriod, hir.FTime:
		// Leaves: nothing further to synthesize.
	}
}

func addStep(art *plan.Artifact, handler string, step plan.Step) {
	h := art.Handler(handler)
	h.Steps = append(h.Steps, step)
}

// synthesizeDelay emits spec.md §4.7 step 3's batching handler for a
// component call: a service_delay timer sharing the callee's period (the
// aeb.rs original's DelayAeb @ 10 ms is exactly the component's own
// period, the same field *callee.PeriodMS already supplies
// service_timeout from), and a handle_delay handler that stores each
// direct input into the service's input store before issuing the same
// StepNode the direct-call path uses. One BatchStore step per input
// covers every subset of the inputs being present at fire time — which
// subset actually arrived is a runtime fact the generated code branches
// on, not something the plan enumerates (spec.md §8's "2⁴ = 16-way
// batched handle_delay" describes that runtime branching, not sixteen
// distinct plan entries). Each BatchStore step carries a template
// InputTooFrequent record the runtime raises verbatim if a second
// arrival lands in an already-filled slot before the timer fires.
func synthesizeDelay(flow *hir.Flow, e *hir.FlowExpr, inputs []symtab.ID, periodMS int, art *plan.Artifact, tab *symtab.Table) {
	delayTimer := flow.Name + "_delay"
	delayHandler := flow.Name + "DelayHandler"
	art.Timers = append(art.Timers, plan.TimerSpec{Name: delayTimer, DurationMS: periodMS, ResetOnFire: true, Handler: delayHandler})

	for _, id := range inputs {
		name := tab.Entry(id).Name
		addStep(art, delayHandler, plan.Step{
			Kind:   plan.BatchStore,
			Signal: id,
			Diagnostic: &diag.Record{
				Kind:     diag.InputTooFrequent,
				Location: flow.Loc,
				Detail:   fmt.Sprintf("second arrival of %q before %q fires", name, delayTimer),
			},
		})
		markBuffered(art, name)
	}

	addStep(art, delayHandler, plan.Step{
		Kind:          plan.StepNode,
		Unitary:       e.ComponentID,
		UnitaryOutput: e.OutputID,
		Inputs:        inputs,
		Outputs:       []symtab.ID{flow.ID},
	})
}

// markBuffered flags the InputSpec named name (if any — a call's operand
// may be a local event/signal with no InputSpec of its own) as arriving
// via the batching store rather than directly.
func markBuffered(art *plan.Artifact, name string) {
	for i := range art.Inputs {
		if art.Inputs[i].Name == name {
			art.Inputs[i].Buffered = true
			return
		}
	}
}
