package unitary

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

func ident(id symtab.ID) *hir.Expr { return &hir.Expr{Kind: hir.KIdentifier, ID: id} }

func intConst(n int64) *hir.Expr {
	return &hir.Expr{Kind: hir.KConstant, Const: hir.Constant{IsInt: true, Int: n}}
}

func plus(a, b *hir.Expr) *hir.Expr {
	return &hir.Expr{Kind: hir.KApplication, Fun: &hir.Expr{Kind: hir.KIdentifier}, Args: []*hir.Expr{a, b}}
}

// TestUnitaryGenerationCounterNode builds a single-output node whose
// output reads a boolean reset input, an int tick input, and its own
// previous value through `last`, and checks the single unitary sub-node
// prunes nothing, classifies the output itself as memory, and keeps both
// inputs in declaration order.
func TestUnitaryGenerationCounterNode(t *testing.T) {
	tab, _ := newTable(t)
	nodeID, _ := tab.InsertNode("Counter", nil, diag.Location{})
	resID, _ := tab.InsertSignal("res", symtab.Input, types.TBoolean, true, nodeID, diag.Location{})
	tickID, _ := tab.InsertSignal("tick", symtab.Input, types.TInteger, true, nodeID, diag.Location{})
	outID, _ := tab.InsertSignal("o", symtab.Output, types.TInteger, true, nodeID, diag.Location{})

	node := &hir.Node{
		ID:      nodeID,
		Inputs:  []symtab.ID{resID, tickID},
		Outputs: []symtab.ID{outID},
		Equations: []hir.Equation{
			{
				Kind:    hir.OutputDef,
				Targets: []symtab.ID{outID},
				Expr: &hir.Expr{
					Kind: hir.KIf,
					Cond: ident(resID),
					Then: intConst(0),
					Else: plus(&hir.Expr{Kind: hir.KLast, Inner: ident(outID)}, ident(tickID)),
				},
			},
		},
	}

	_, bag := newTable(t)
	GenerateNode(node, tab, bag)
	require.False(t, bag.HasErrors(), "unexpected diagnostics: %v", bag.All())

	sub, ok := node.UnitaryNodes[outID]
	require.True(t, ok)
	assert.Equal(t, []symtab.ID{resID, tickID}, sub.Inputs)
	_, isMemory := sub.Memory[outID]
	assert.True(t, isMemory, "o should be classified as memory via `last o`")
	require.Len(t, sub.Equations, 1)
}

// TestUnitaryGenerationPartialInputPruning builds a two-output node where
// o1 depends on both inputs and o2 depends on only one, and checks each
// unitary sub-node prunes to exactly the inputs it needs.
func TestUnitaryGenerationPartialInputPruning(t *testing.T) {
	tab, _ := newTable(t)
	nodeID, _ := tab.InsertNode("N", nil, diag.Location{})
	xID, _ := tab.InsertSignal("x", symtab.Input, types.TInteger, true, nodeID, diag.Location{})
	yID, _ := tab.InsertSignal("y", symtab.Input, types.TInteger, true, nodeID, diag.Location{})
	o1ID, _ := tab.InsertSignal("o1", symtab.Output, types.TInteger, true, nodeID, diag.Location{})
	o2ID, _ := tab.InsertSignal("o2", symtab.Output, types.TInteger, true, nodeID, diag.Location{})

	node := &hir.Node{
		ID:      nodeID,
		Inputs:  []symtab.ID{xID, yID},
		Outputs: []symtab.ID{o1ID, o2ID},
		Equations: []hir.Equation{
			{Kind: hir.OutputDef, Targets: []symtab.ID{o1ID}, Expr: plus(ident(xID), ident(yID))},
			{Kind: hir.OutputDef, Targets: []symtab.ID{o2ID}, Expr: plus(ident(yID), intConst(1))},
		},
	}

	_, bag := newTable(t)
	GenerateNode(node, tab, bag)
	require.False(t, bag.HasErrors())

	assert.Equal(t, []symtab.ID{xID, yID}, node.UnitaryNodes[o1ID].Inputs)
	assert.Equal(t, []symtab.ID{yID}, node.UnitaryNodes[o2ID].Inputs)
}

// TestUnitaryGenerationMissingOutputDefinition checks an output with no
// binding equation is reported rather than silently given an empty
// sub-node.
func TestUnitaryGenerationMissingOutputDefinition(t *testing.T) {
	tab, _ := newTable(t)
	nodeID, _ := tab.InsertNode("Bad", nil, diag.Location{})
	outID, _ := tab.InsertSignal("o", symtab.Output, types.TInteger, true, nodeID, diag.Location{})

	node := &hir.Node{ID: nodeID, Outputs: []symtab.ID{outID}}

	_, bag := newTable(t)
	GenerateNode(node, tab, bag)

	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.MissingOutputDefinition, bag.Errors()[0].Kind)
	_, ok := node.UnitaryNodes[outID]
	assert.False(t, ok)
}

// TestCallSitePruning checks that `z = n(a, b).o2` is rewritten to
// address n's o2 unitary sub-node with the unused `a` argument dropped.
func TestCallSitePruning(t *testing.T) {
	tab, _ := newTable(t)
	nID, _ := tab.InsertNode("N", nil, diag.Location{})
	aID, _ := tab.InsertSignal("a", symtab.Input, types.TInteger, true, nID, diag.Location{})
	bID, _ := tab.InsertSignal("b", symtab.Input, types.TInteger, true, nID, diag.Location{})
	o1ID, _ := tab.InsertSignal("o1", symtab.Output, types.TInteger, true, nID, diag.Location{})
	o2ID, _ := tab.InsertSignal("o2", symtab.Output, types.TInteger, true, nID, diag.Location{})

	n := &hir.Node{
		ID:      nID,
		Inputs:  []symtab.ID{aID, bID},
		Outputs: []symtab.ID{o1ID, o2ID},
		Equations: []hir.Equation{
			{Kind: hir.OutputDef, Targets: []symtab.ID{o1ID}, Expr: plus(ident(aID), ident(bID))},
			{Kind: hir.OutputDef, Targets: []symtab.ID{o2ID}, Expr: ident(bID)},
		},
	}

	callerID, _ := tab.InsertNode("Caller", nil, diag.Location{})
	zID, _ := tab.InsertSignal("z", symtab.Output, types.TInteger, true, callerID, diag.Location{})
	argA, argB := ident(aID), ident(bID)
	call := &hir.Expr{Kind: hir.KNodeApplication, NodeID: nID, OutputID: o2ID, Args: []*hir.Expr{argA, argB}}
	caller := &hir.Node{
		ID:        callerID,
		Outputs:   []symtab.ID{zID},
		Equations: []hir.Equation{{Kind: hir.OutputDef, Targets: []symtab.ID{zID}, Expr: call}},
	}

	_, bag := newTable(t)
	GenerateNode(n, tab, bag)
	require.False(t, bag.HasErrors())

	prog := hir.NewProgram()
	prog.Nodes[nID] = n
	prog.Nodes[callerID] = caller
	prog.Order = []symtab.ID{nID, callerID}

	RewriteCallSites(prog)

	assert.Equal(t, hir.KUnitaryNodeApplication, call.Kind)
	require.Len(t, call.Args, 1)
	assert.Same(t, argB, call.Args[0])
}
