package reactive

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/plan"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

func newTable(t *testing.T) (*symtab.Table, *diag.Bag) {
	t.Helper()
	tab := symtab.New()
	tab.Initialize()
	return tab, diag.NewBag(uuid.New())
}

func ifc(id symtab.ID, flows ...*hir.Flow) *hir.Interface {
	m := make(map[symtab.ID]*hir.Flow, len(flows))
	order := make([]symtab.ID, 0, len(flows))
	for _, f := range flows {
		m[f.ID] = f
		order = append(order, f.ID)
	}
	return &hir.Interface{ID: id, Flows: m, Order: order}
}

// TestSynthesizePlainImportExport checks that a flow imported from an
// external path (no Expr) becomes an InputSpec, and one re-exported
// under a path (with a trivial FIdent-defined Expr) becomes an
// OutputSpec carrying a single emission point, without any timer or
// handler step being generated — a plain passthrough does not need one.
func TestSynthesizePlainImportExport(t *testing.T) {
	tab, bag := newTable(t)
	ifaceID, _ := tab.InsertInterface("Wiring", diag.Location{})
	inID, _ := tab.InsertFlow("raw_speed", types.TFloat, ifaceID, "bus.speed", diag.Location{})
	outID, _ := tab.InsertFlow("speed_out", types.TFloat, ifaceID, "bus.speed_out", diag.Location{})

	in := &hir.Flow{ID: inID, Name: "raw_speed", Path: "bus.speed", Type: types.TFloat}
	out := &hir.Flow{ID: outID, Name: "speed_out", Path: "bus.speed_out", Type: types.TFloat,
		Expr: &hir.FlowExpr{Kind: hir.FIdent, FlowID: inID, Type: types.TFloat}}

	iface := ifc(ifaceID, in, out)
	art := Synthesize(iface, hir.NewProgram(), tab, uuid.New(), bag)

	require.Len(t, art.Inputs, 1)
	assert.Equal(t, "raw_speed", art.Inputs[0].Name)
	require.Len(t, art.Outputs, 1)
	assert.Equal(t, "speed_out", art.Outputs[0].Name)
	require.Len(t, art.Outputs[0].EmissionPoints, 1)
	assert.Empty(t, art.Timers)
	assert.True(t, bag.Len() == 0)
}

// TestSynthesizeSampleEmitsPeriodTimer checks that a sample(e, T)-defined
// output flow produces a period timer and a single UpdateSignal step in
// its own handler.
func TestSynthesizeSampleEmitsPeriodTimer(t *testing.T) {
	tab, bag := newTable(t)
	ifaceID, _ := tab.InsertInterface("Wiring", diag.Location{})
	srcID, _ := tab.InsertFlow("raw", types.TFloat, ifaceID, "bus.raw", diag.Location{})
	outID, _ := tab.InsertFlow("sampled", types.TFloat, ifaceID, "bus.sampled", diag.Location{})

	src := &hir.Flow{ID: srcID, Name: "raw", Path: "bus.raw", Type: types.TFloat}
	out := &hir.Flow{ID: outID, Name: "sampled", Path: "bus.sampled", Type: types.TFloat, Expr: &hir.FlowExpr{
		Kind: hir.FSample, PeriodMS: 100, Type: types.TFloat,
		Base: &hir.FlowExpr{Kind: hir.FIdent, FlowID: srcID, Type: types.TFloat},
	}}

	iface := ifc(ifaceID, src, out)
	art := Synthesize(iface, hir.NewProgram(), tab, uuid.New(), bag)

	require.Len(t, art.Timers, 1)
	assert.Equal(t, "sampled_period", art.Timers[0].Name)
	assert.Equal(t, 100, art.Timers[0].DurationMS)
	assert.True(t, art.Timers[0].ResetOnFire)

	h := art.Handler("sampledHandler")
	require.Len(t, h.Steps, 1)
	assert.Equal(t, plan.UpdateSignal, h.Steps[0].Kind)
	assert.Equal(t, outID, h.Steps[0].Signal)
}

// TestSynthesizeMergeOfTwoEvents merges two distinct underlying flows
// into one output: the merge itself produces one UpdateSignal step, and both
// operand flows are still walked (no step of their own, since they're
// bare idents, but no diagnostic either).
func TestSynthesizeMergeOfTwoEvents(t *testing.T) {
	tab, bag := newTable(t)
	ifaceID, _ := tab.InsertInterface("Wiring", diag.Location{})
	lID, _ := tab.InsertFlow("pedestrian_l", types.TFloat, ifaceID, "bus.pedestrian_l", diag.Location{})
	rID, _ := tab.InsertFlow("pedestrian_r", types.TFloat, ifaceID, "bus.pedestrian_r", diag.Location{})
	mergedID, _ := tab.InsertFlow("pedestrian", types.TFloat, ifaceID, "", diag.Location{})

	l := &hir.Flow{ID: lID, Name: "pedestrian_l", Path: "bus.pedestrian_l", Type: types.TFloat}
	r := &hir.Flow{ID: rID, Name: "pedestrian_r", Path: "bus.pedestrian_r", Type: types.TFloat}
	merged := &hir.Flow{ID: mergedID, Name: "pedestrian", Type: types.TFloat, Expr: &hir.FlowExpr{
		Kind: hir.FMerge, Type: types.TFloat,
		Flows: []*hir.FlowExpr{
			{Kind: hir.FIdent, FlowID: lID, Type: types.TFloat},
			{Kind: hir.FIdent, FlowID: rID, Type: types.TFloat},
		},
	}}

	iface := ifc(ifaceID, l, r, merged)
	art := Synthesize(iface, hir.NewProgram(), tab, uuid.New(), bag)

	h := art.Handler("pedestrianHandler")
	require.Len(t, h.Steps, 1)
	assert.Equal(t, plan.UpdateSignal, h.Steps[0].Kind)
	assert.Equal(t, mergedID, h.Steps[0].Signal)
	assert.True(t, bag.Len() == 0)
}

// TestSynthesizeTimeoutEmitsTimeoutTimer checks that timeout(e, T)
// produces a dedicated timer and a ResetTimer step, and that the
// underlying input flow is marked ResetsTimer (spec.md §4.7 step 4:
// the timer rearms on every arrival of the event it watches).
func TestSynthesizeTimeoutEmitsTimeoutTimer(t *testing.T) {
	tab, bag := newTable(t)
	ifaceID, _ := tab.InsertInterface("Wiring", diag.Location{})
	evID, _ := tab.InsertFlow("pedestrian", types.TFloat, ifaceID, "bus.pedestrian", diag.Location{})
	outID, _ := tab.InsertFlow("timeout_pedestrian", types.TUnit, ifaceID, "", diag.Location{})

	ev := &hir.Flow{ID: evID, Name: "pedestrian", Path: "bus.pedestrian", Type: types.TFloat}
	out := &hir.Flow{ID: outID, Name: "timeout_pedestrian", Type: types.TUnit, Expr: &hir.FlowExpr{
		Kind: hir.FTimeout, DeadlineMS: 500, Type: types.TUnit,
		Base: &hir.FlowExpr{Kind: hir.FIdent, FlowID: evID, Type: types.TFloat},
	}}

	iface := ifc(ifaceID, ev, out)
	art := Synthesize(iface, hir.NewProgram(), tab, uuid.New(), bag)

	require.Len(t, art.Timers, 1)
	assert.Equal(t, "timeout_pedestrian_timeout", art.Timers[0].Name)
	assert.Equal(t, 500, art.Timers[0].DurationMS)

	h := art.Handler("timeout_pedestrianHandler")
	require.Len(t, h.Steps, 1)
	assert.Equal(t, plan.ResetTimer, h.Steps[0].Kind)
	assert.Equal(t, "timeout_pedestrian_timeout", h.Steps[0].Timer)

	require.Len(t, art.Inputs, 1)
	assert.True(t, art.Inputs[0].ResetsTimer)
}

// TestSynthesizeAEBLikeService grounds the combined scenario in
// original_source/compiler/tests/macro_outputs/aeb.rs: two pedestrian
// event inputs merged into one, a per-event timeout on that merged
// event, an unrelated periodic speed input, and a component call
// (the braking decision) gated behind its own service_timeout and its
// own service_delay batching handler — one handler per output flow,
// each carrying the steps its definition needs.
//
// The aeb.rs original's delay/batching timer (DelayAeb, 10ms) is the
// braking component's own period, the same field the service_timeout
// timer already reads (*callee.PeriodMS), so both timers share it here.
func TestSynthesizeAEBLikeService(t *testing.T) {
	tab, bag := newTable(t)
	ifaceID, _ := tab.InsertInterface("Aeb", diag.Location{})

	lID, _ := tab.InsertFlow("pedestrian_l", types.TFloat, ifaceID, "bus.pedestrian_l", diag.Location{})
	rID, _ := tab.InsertFlow("pedestrian_r", types.TFloat, ifaceID, "bus.pedestrian_r", diag.Location{})
	speedID, _ := tab.InsertFlow("speed_kmh", types.TFloat, ifaceID, "bus.speed_kmh", diag.Location{})
	mergedID, _ := tab.InsertFlow("pedestrian", types.TFloat, ifaceID, "", diag.Location{})
	timeoutID, _ := tab.InsertFlow("timeout_pedestrian", types.TUnit, ifaceID, "", diag.Location{})

	periodMS := 500
	brakeNodeID, _ := tab.InsertNode("BrakingState", &periodMS, diag.Location{})
	brakeOutID, _ := tab.InsertSignal("braking", symtab.Output, types.TInteger, true, brakeNodeID, diag.Location{})
	brakesID, _ := tab.InsertFlow("brakes", types.TInteger, ifaceID, "bus.brakes", diag.Location{})

	l := &hir.Flow{ID: lID, Name: "pedestrian_l", Path: "bus.pedestrian_l", Type: types.TFloat}
	r := &hir.Flow{ID: rID, Name: "pedestrian_r", Path: "bus.pedestrian_r", Type: types.TFloat}
	speed := &hir.Flow{ID: speedID, Name: "speed_kmh", Path: "bus.speed_kmh", Type: types.TFloat}

	merged := &hir.Flow{ID: mergedID, Name: "pedestrian", Type: types.TFloat, Expr: &hir.FlowExpr{
		Kind: hir.FMerge, Type: types.TFloat,
		Flows: []*hir.FlowExpr{
			{Kind: hir.FIdent, FlowID: lID, Type: types.TFloat},
			{Kind: hir.FIdent, FlowID: rID, Type: types.TFloat},
		},
	}}
	timeout := &hir.Flow{ID: timeoutID, Name: "timeout_pedestrian", Type: types.TUnit, Expr: &hir.FlowExpr{
		Kind: hir.FTimeout, DeadlineMS: 500, Type: types.TUnit,
		Base: &hir.FlowExpr{Kind: hir.FIdent, FlowID: mergedID, Type: types.TFloat},
	}}
	brakes := &hir.Flow{ID: brakesID, Name: "brakes", Path: "bus.brakes", Type: types.TInteger, Expr: &hir.FlowExpr{
		Kind: hir.FComponentCall, Type: types.TInteger,
		ComponentID: brakeNodeID, OutputID: brakeOutID,
		Inputs: []*hir.FlowExpr{
			{Kind: hir.FIdent, FlowID: mergedID, Type: types.TFloat},
			{Kind: hir.FIdent, FlowID: timeoutID, Type: types.TUnit},
			{Kind: hir.FIdent, FlowID: speedID, Type: types.TFloat},
		},
	}}

	prog := hir.NewProgram()
	prog.Nodes[brakeNodeID] = &hir.Node{ID: brakeNodeID, PeriodMS: &periodMS, Outputs: []symtab.ID{brakeOutID}}

	iface := ifc(ifaceID, l, r, speed, merged, timeout, brakes)
	art := Synthesize(iface, prog, tab, uuid.New(), bag)

	require.True(t, bag.Len() == 0)

	var timeoutTimer, serviceTimer, delayTimer *plan.TimerSpec
	for i := range art.Timers {
		switch art.Timers[i].Name {
		case "timeout_pedestrian_timeout":
			timeoutTimer = &art.Timers[i]
		case "brakes_service_timeout":
			serviceTimer = &art.Timers[i]
		case "brakes_delay":
			delayTimer = &art.Timers[i]
		}
	}
	require.NotNil(t, timeoutTimer)
	assert.Equal(t, 500, timeoutTimer.DurationMS)
	require.NotNil(t, serviceTimer)
	assert.Equal(t, 500, serviceTimer.DurationMS)
	require.NotNil(t, delayTimer, "service_delay timer (spec.md §4.7 step 3) should share the component's period")
	assert.Equal(t, 500, delayTimer.DurationMS)
	assert.Equal(t, "brakesDelayHandler", delayTimer.Handler)

	h := art.Handler("brakesHandler")
	require.Len(t, h.Steps, 1)
	assert.Equal(t, plan.StepNode, h.Steps[0].Kind)
	assert.Equal(t, brakeNodeID, h.Steps[0].Unitary)
	assert.Equal(t, brakeOutID, h.Steps[0].UnitaryOutput)
	assert.ElementsMatch(t, []symtab.ID{mergedID, timeoutID, speedID}, h.Steps[0].Inputs)

	// handle_delay: one BatchStore per direct input (§8's 16-way
	// subset-covering handler — which subset arrived is a runtime
	// fact, so one conditional BatchStore per input suffices here),
	// each tagged with an InputTooFrequent template, then the same
	// StepNode the per-input path issues.
	dh := art.Handler("brakesDelayHandler")
	require.Len(t, dh.Steps, 4)
	var batched []symtab.ID
	for _, s := range dh.Steps[:3] {
		require.Equal(t, plan.BatchStore, s.Kind)
		require.NotNil(t, s.Diagnostic)
		assert.Equal(t, diag.InputTooFrequent, s.Diagnostic.Kind)
		batched = append(batched, s.Signal)
	}
	assert.ElementsMatch(t, []symtab.ID{mergedID, timeoutID, speedID}, batched)
	last := dh.Steps[3]
	assert.Equal(t, plan.StepNode, last.Kind)
	assert.Equal(t, brakeNodeID, last.Unitary)
	assert.ElementsMatch(t, []symtab.ID{mergedID, timeoutID, speedID}, last.Inputs)

	// speed_kmh is the only direct import among the call's operands
	// (merged/timeout are locally defined flows with no InputSpec), so
	// it's the only InputSpec that should come back marked Buffered.
	for _, in := range art.Inputs {
		if in.Name == "speed_kmh" {
			assert.True(t, in.Buffered)
		} else {
			assert.False(t, in.Buffered)
		}
	}
}
