package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/plan"
)

func intType() *ast.TypeExpr { return &ast.TypeExpr{Kind: ast.TEInt} }
func ident(name string) *ast.Expr { return &ast.Expr{Kind: ast.EIdent, Name: name} }
func constInt(n int64) *ast.Expr  { return &ast.Expr{Kind: ast.EConstInt, Int: n} }

// passthroughFile builds a one-node, one-interface file whose service
// imports a single Signal(int) flow and re-exports it unchanged: a periodic
// `component Identity(x: int) -> (y: int) { y = x; }` called from a
// service that imports x and exports the call's result. Only components
// (periodic nodes) may be called from an interface.
func passthroughFile() *ast.File {
	periodMS := 50
	node := &ast.Node{
		Name:     "Identity",
		Inputs:   []ast.Param{{Name: "x", Type: intType()}},
		Outputs:  []ast.Param{{Name: "y", Type: intType()}},
		PeriodMS: &periodMS,
		Equations: []ast.Equation{
			{Kind: ast.EOutputDef, Targets: []string{"y"}, Expr: ident("x")},
		},
	}
	iface := &ast.Interface{
		Name: "Wiring",
		Stmts: []ast.FlowStmt{
			{Kind: ast.FSImport, Name: "x", Path: "bus.x", Type: &ast.TypeExpr{Kind: ast.TESignal, Elem: intType()}},
			{
				Kind: ast.FSLetSignal, Name: "y", Type: &ast.TypeExpr{Kind: ast.TESignal, Elem: intType()},
				Expr: &ast.Expr{Kind: ast.ENodeCall, CalleeName: "Identity", OutputName: "y", Args: []*ast.Expr{ident("x")}},
			},
			{Kind: ast.FSExport, Name: "y", Path: "bus.y"},
		},
	}
	return &ast.File{Name: "passthrough.grust", Items: []ast.Item{
		{Kind: ast.INode, Node: node},
		{Kind: ast.IInterface, Interface: iface},
	}}
}

func TestRunCompilesAndWritesArtifactJSON(t *testing.T) {
	raw, err := json.Marshal(passthroughFile())
	require.NoError(t, err)

	var stdin, stdout, stderr bytes.Buffer
	stdin.Write(raw)

	code := run(nil, &stdin, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	var artifacts []*plan.Artifact
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &artifacts))
	require.Len(t, artifacts, 1)
	require.Len(t, artifacts[0].Outputs, 1)
	assert.Equal(t, "y", artifacts[0].Outputs[0].Name)
}

func TestRunFailsClosedOnInvalidJSON(t *testing.T) {
	var stdin, stdout, stderr bytes.Buffer
	stdin.WriteString("not json")

	code := run(nil, &stdin, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Empty(t, stdout.Bytes())
	assert.NotEmpty(t, stderr.String())
}

// TestRunExitsNonZeroOnTypeError checks that a malformed node (an
// output bound to the wrong type) surfaces its diagnostic on stderr and
// exits non-zero, without writing any artifact to stdout.
func TestRunExitsNonZeroOnTypeError(t *testing.T) {
	boolType := &ast.TypeExpr{Kind: ast.TEBool}
	badNode := &ast.Node{
		Name:    "Bad",
		Outputs: []ast.Param{{Name: "o", Type: boolType}},
		Equations: []ast.Equation{
			{Kind: ast.EOutputDef, Targets: []string{"o"}, Expr: constInt(1)},
		},
	}
	file := &ast.File{Name: "bad.grust", Items: []ast.Item{{Kind: ast.INode, Node: badNode}}}
	raw, err := json.Marshal(file)
	require.NoError(t, err)

	var stdin, stdout, stderr bytes.Buffer
	stdin.Write(raw)

	code := run(nil, &stdin, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "IncompatibleType")
}
