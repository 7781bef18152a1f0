package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

func TestInitializeBindsBuiltins(t *testing.T) {
	tab := symtab.New()
	tab.Initialize()
	id, err := tab.GetFunctionID(types.OpAdd, diag.Location{})
	require.NoError(t, err)
	assert.Equal(t, types.Polymorphic, tab.Entry(id).Type.Kind)
}

func TestDuplicateNameInSameScope(t *testing.T) {
	tab := symtab.New()
	_, err := tab.InsertSignal("x", symtab.Local, types.TInteger, true, 0, diag.Location{})
	require.NoError(t, err)
	_, err = tab.InsertSignal("x", symtab.Local, types.TInteger, true, 0, diag.Location{})
	require.Error(t, err)
	assert.True(t, symtab.IsDuplicateName(err))
}

func TestLocalScopeShadowsThenPops(t *testing.T) {
	tab := symtab.New()
	outer, err := tab.InsertSignal("x", symtab.Local, types.TInteger, true, 0, diag.Location{})
	require.NoError(t, err)

	tab.Local()
	inner, err := tab.InsertSignal("x", symtab.Local, types.TFloat, true, 0, diag.Location{})
	require.NoError(t, err)
	got, err := tab.GetSignalID("x", diag.Location{})
	require.NoError(t, err)
	assert.Equal(t, inner, got)
	tab.Global()

	got, err = tab.GetSignalID("x", diag.Location{})
	require.NoError(t, err)
	assert.Equal(t, outer, got)
}

func TestUnknownSignal(t *testing.T) {
	tab := symtab.New()
	_, err := tab.GetSignalID("nope", diag.Location{})
	require.Error(t, err)
}

func TestInsertEventCreatesEnumAndScrutinee(t *testing.T) {
	tab := symtab.New()
	nodeID, err := tab.InsertNode("braking_state", nil, diag.Location{})
	require.NoError(t, err)
	tab.Local()

	elemID, scrutID, err := tab.InsertEvent(nodeID, "braking_state", "pedest", types.TFloat, diag.Location{})
	require.NoError(t, err)
	assert.Equal(t, symtab.EventElementKind, tab.Entry(elemID).Kind)
	assert.Equal(t, symtab.EventKind, tab.Entry(scrutID).Kind)
	assert.Equal(t, types.Enumeration, tab.Entry(scrutID).Type.Kind)
	assert.Equal(t, "braking_stateEvent", tab.Entry(scrutID).Type.Name)

	// A second event input on the same node reuses the enum and scrutinee.
	elemID2, scrutID2, err := tab.InsertEvent(nodeID, "braking_state", "timeout_pedest", types.TUnit, diag.Location{})
	require.NoError(t, err)
	assert.NotEqual(t, elemID, elemID2)
	assert.Equal(t, scrutID, scrutID2)
}

func TestRestoreContext(t *testing.T) {
	tab := symtab.New()
	nodeID, err := tab.InsertNode("n", nil, diag.Location{})
	require.NoError(t, err)

	tab.Local()
	xID, err := tab.InsertSignal("x", symtab.Local, types.TInteger, true, nodeID, diag.Location{})
	require.NoError(t, err)
	tab.SaveContext(nodeID)
	tab.Global()

	// x is no longer visible from the outer scope.
	_, err = tab.GetSignalID("x", diag.Location{})
	require.Error(t, err)

	restore, err := tab.RestoreContext(nodeID)
	require.NoError(t, err)
	got, err := tab.GetSignalID("x", diag.Location{})
	require.NoError(t, err)
	assert.Equal(t, xID, got)
	restore()

	_, err = tab.GetSignalID("x", diag.Location{})
	require.Error(t, err)
}

func TestInsertFlowValidatesPath(t *testing.T) {
	tab := symtab.New()
	_, err := tab.InsertFlow("speed", types.NewSignal(types.TFloat), 0, "github.com/langrust/aeb/speed", diag.Location{})
	require.NoError(t, err)

	_, err = tab.InsertFlow("bad", types.NewSignal(types.TFloat), 0, "not a path!!", diag.Location{})
	require.Error(t, err)
}
