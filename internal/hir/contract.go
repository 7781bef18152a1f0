package hir

import (
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// TermKind tags a contract logical term. Implication is always
// desugared to (A ∧ B) ∨ ¬A during lowering (spec.md §4.2), so this
// closed set never needs a dedicated Implication case downstream of HIR.
type TermKind int

const (
	TAnd TermKind = iota
	TOr
	TNot
	TForall
	TEventImplication
	TApplication
	TBinaryOp
	TUnaryOp
	TConstant
	TIdentifier
	TLast
	TResult
)

// Term is one node of a contract's logical term tree (spec.md §3 "Contract").
type Term struct {
	Kind TermKind
	Loc  diag.Location
	Type *types.Type

	Children []*Term // And/Or/EventImplication operands

	Operand *Term // Not

	// Forall
	BoundName string
	BoundType *types.Type
	Body      *Term

	// Application
	Fun  symtab.ID
	Args []*Term

	// BinaryOp/UnaryOp
	Op  string
	LHS *Term
	RHS *Term // nil for UnaryOp

	Const Constant // TConstant

	ID symtab.ID // TIdentifier, TLast: which signal

	// TResult carries no payload: it refers to the node's own output.
}

// Contract is the three logical-term lists of spec.md §3 "Contract":
// requires, ensures, invariant.
type Contract struct {
	Requires  []*Term
	Ensures   []*Term
	Invariant []*Term
}
