package causality

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

func newTable(t *testing.T) (*symtab.Table, *diag.Bag) {
	t.Helper()
	tab := symtab.New()
	tab.Initialize()
	return tab, diag.NewBag(uuid.New())
}

// TestSelfDelayedReferenceIsLegal checks `x = 0 fby x` — a self-loop of
// positive delay — schedules cleanly with no diagnostics.
func TestSelfDelayedReferenceIsLegal(t *testing.T) {
	tab, bag := newTable(t)
	nodeID, _ := tab.InsertNode("N", nil, diag.Location{})
	xID, _ := tab.InsertSignal("x", symtab.Output, types.TInteger, true, nodeID, diag.Location{})

	node := &hir.Node{ID: nodeID}
	sub := &hir.UnitaryNode{
		Parent:    nodeID,
		Output:    xID,
		Graph:     &hir.Graph{Signals: []symtab.ID{xID}, Edges: []hir.Edge{{From: xID, To: xID, Delay: 1}}},
		Equations: []hir.Equation{{Kind: hir.OutputDef, Targets: []symtab.ID{xID}}},
	}

	Analyze(node, sub, tab, bag)
	require.False(t, bag.HasErrors(), "unexpected diagnostics: %v", bag.All())
	assert.Equal(t, []symtab.ID{xID}, sub.Schedule)
}

// TestSelfImmediateReferenceFailsInstantaneousLoop checks `x = x` — a
// zero-delay self-loop — is rejected.
func TestSelfImmediateReferenceFailsInstantaneousLoop(t *testing.T) {
	tab, bag := newTable(t)
	nodeID, _ := tab.InsertNode("N", nil, diag.Location{})
	xID, _ := tab.InsertSignal("x", symtab.Output, types.TInteger, true, nodeID, diag.Location{})

	node := &hir.Node{ID: nodeID}
	sub := &hir.UnitaryNode{
		Parent:    nodeID,
		Output:    xID,
		Graph:     &hir.Graph{Signals: []symtab.ID{xID}, Edges: []hir.Edge{{From: xID, To: xID, Delay: 0}}},
		Equations: []hir.Equation{{Kind: hir.OutputDef, Targets: []symtab.ID{xID}}},
	}

	Analyze(node, sub, tab, bag)
	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.InstantaneousLoop, bag.Errors()[0].Kind)
}

// TestMutualImmediateReferenceFailsInstantaneousLoop checks
// `a = b + 1; b = a * 2;` — a two-signal zero-delay cycle — is rejected
// listing both signals.
func TestMutualImmediateReferenceFailsInstantaneousLoop(t *testing.T) {
	tab, bag := newTable(t)
	nodeID, _ := tab.InsertNode("N", nil, diag.Location{})
	aID, _ := tab.InsertSignal("a", symtab.Output, types.TInteger, true, nodeID, diag.Location{})
	bID, _ := tab.InsertSignal("b", symtab.Local, types.TInteger, true, nodeID, diag.Location{})

	node := &hir.Node{ID: nodeID}
	sub := &hir.UnitaryNode{
		Parent: nodeID,
		Output: aID,
		Graph: &hir.Graph{
			Signals: []symtab.ID{aID, bID},
			Edges: []hir.Edge{
				{From: aID, To: bID, Delay: 0},
				{From: bID, To: aID, Delay: 0},
			},
		},
		Equations: []hir.Equation{
			{Kind: hir.OutputDef, Targets: []symtab.ID{aID}},
			{Kind: hir.LocalDef, Targets: []symtab.ID{bID}},
		},
	}

	Analyze(node, sub, tab, bag)
	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.InstantaneousLoop, bag.Errors()[0].Kind)
}

// TestDelayMagnitudeDoesNotAffectCausality checks that an edge of delay
// 2 (e.g. `0 fby (0 fby x)`) is excluded from the zero-delay subgraph
// exactly like delay 1, so it never triggers InstantaneousLoop.
func TestDelayMagnitudeDoesNotAffectCausality(t *testing.T) {
	tab, bag := newTable(t)
	nodeID, _ := tab.InsertNode("N", nil, diag.Location{})
	xID, _ := tab.InsertSignal("x", symtab.Input, types.TInteger, true, nodeID, diag.Location{})
	yID, _ := tab.InsertSignal("y", symtab.Output, types.TInteger, true, nodeID, diag.Location{})

	node := &hir.Node{ID: nodeID}
	sub := &hir.UnitaryNode{
		Parent:    nodeID,
		Output:    yID,
		Graph:     &hir.Graph{Signals: []symtab.ID{xID, yID}, Edges: []hir.Edge{{From: yID, To: xID, Delay: 2}}},
		Equations: []hir.Equation{{Kind: hir.OutputDef, Targets: []symtab.ID{yID}}},
	}

	Analyze(node, sub, tab, bag)
	require.False(t, bag.HasErrors(), "unexpected diagnostics: %v", bag.All())
	assert.Len(t, sub.Schedule, 2)
}

// TestScheduleOrdersDependenciesFirst checks a simple producer/consumer
// pair (`o = x + y`) schedules its inputs before the output.
func TestScheduleOrdersDependenciesFirst(t *testing.T) {
	tab, bag := newTable(t)
	nodeID, _ := tab.InsertNode("N", nil, diag.Location{})
	xID, _ := tab.InsertSignal("x", symtab.Input, types.TInteger, true, nodeID, diag.Location{})
	yID, _ := tab.InsertSignal("y", symtab.Input, types.TInteger, true, nodeID, diag.Location{})
	oID, _ := tab.InsertSignal("o", symtab.Output, types.TInteger, true, nodeID, diag.Location{})

	node := &hir.Node{ID: nodeID}
	sub := &hir.UnitaryNode{
		Parent: nodeID,
		Output: oID,
		Graph: &hir.Graph{
			Signals: []symtab.ID{xID, yID, oID},
			Edges: []hir.Edge{
				{From: oID, To: xID, Delay: 0},
				{From: oID, To: yID, Delay: 0},
			},
		},
		Equations: []hir.Equation{{Kind: hir.OutputDef, Targets: []symtab.ID{oID}}},
	}

	Analyze(node, sub, tab, bag)
	require.False(t, bag.HasErrors())
	require.Len(t, sub.Schedule, 3)
	oPos, xPos, yPos := -1, -1, -1
	for i, id := range sub.Schedule {
		switch id {
		case oID:
			oPos = i
		case xID:
			xPos = i
		case yID:
			yPos = i
		}
	}
	assert.Greater(t, oPos, xPos)
	assert.Greater(t, oPos, yPos)
}
