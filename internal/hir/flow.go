package hir

import (
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// FlowExprKind tags a FlowExpression variant (spec.md §3 "FlowExpression").
type FlowExprKind int

const (
	FIdent FlowExprKind = iota
	FSample
	FScan
	FPeriod
	FSampleOn
	FScanOn
	FTimeout
	FThrottle
	FOnChange
	FPersist
	FMerge
	FZip
	FTime
	FComponentCall
)

// FlowExpr is an interface-level variable's defining expression.
// SPEC_FULL.md §10 generalizes Merge/Zip to N-ary (≥2) operand lists,
// matching original_source's interface grammar; the binary spec.md
// examples are just the Flows-length-2 case.
type FlowExpr struct {
	Kind FlowExprKind
	Type *types.Type
	Loc  diag.Location

	FlowID symtab.ID // FIdent

	Base      *FlowExpr   // FSample/FScan/FTimeout/FThrottle/FOnChange/FPersist
	PeriodMS  int         // FSample/FScan/FPeriod
	EventFlow *FlowExpr   // FSampleOn/FScanOn
	DeadlineMS int        // FTimeout
	Delta     float64     // FThrottle

	Flows []*FlowExpr // FMerge/FZip, N-ary

	ComponentID symtab.ID   // FComponentCall
	Inputs      []*FlowExpr // FComponentCall, positional
	OutputID    symtab.ID   // FComponentCall: which output
}

// Flow = interface-level variable ranging over an infinite stream, with
// an optional Path when imported or exported (spec.md §3 "Flow").
type Flow struct {
	ID   symtab.ID
	Name string
	Path string // "" unless imported/exported
	Expr *FlowExpr // nil for a pure import (value arrives from outside)
	Type *types.Type
	Loc  diag.Location
}

// Interface is a top-level service/interface block: an ordered list of
// flow declarations wiring components together (spec.md §1, §6).
type Interface struct {
	ID    symtab.ID
	Flows map[symtab.ID]*Flow
	Order []symtab.ID // declaration order, used for tie-breaks (spec.md §4.7 rule 6)
	Loc   diag.Location
}
