package hir

import (
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// EquationKind distinguishes the equation sub-kinds of spec.md §3.
type EquationKind int

const (
	LocalDef EquationKind = iota
	OutputDef
	MatchEq     // reactive nodes: Match{scrutinee, arms}
	WhenEq      // reactive nodes: When{arms}
	InitSignal  // InitSignal(pattern, initExpr) — supplies `last x`'s initializer
)

// Equation = (pattern, streamExpression, location), instantiating one or
// more signals of a node (spec.md §3).
type Equation struct {
	Kind EquationKind
	Loc  diag.Location

	// Targets is the set of signal ids this equation binds (more than one
	// for a tuple-destructuring pattern). Order matters for tuple patterns.
	Targets []symtab.ID

	// DeclaredTypes holds the declared type of each new local introduced
	// by a LocalDef; empty for OutputDef (outputs are declared at the
	// node signature) and for InitSignal (the initializer's type must
	// match the target signal's already-declared type).
	DeclaredTypes map[symtab.ID]*types.Type

	// Expr is the defining stream expression for LocalDef, OutputDef, and
	// InitSignal equations.
	Expr *Expr

	// Scrutinee/Arms are populated for MatchEq/WhenEq equations.
	Scrutinee *Expr
	Arms      []MatchArm
}
