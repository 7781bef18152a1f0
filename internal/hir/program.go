package hir

import (
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/types"
)

// Function is a top-level pure function: `function NAME (...) -> T { ... }`.
type Function struct {
	ID         symtab.ID
	Params     []symtab.ID
	ReturnType *types.Type
	Body       *Expr
	Loc        diag.Location
}

// Program is the whole-compilation HIR: every typedef, function, node,
// and interface, by id.
type Program struct {
	Typedefs   map[int]*types.Type // typedef symtab id -> resolved type (nil until internal/typedef runs)
	Functions  map[symtab.ID]*Function
	Nodes      map[symtab.ID]*Node
	Interfaces map[symtab.ID]*Interface

	// Declaration order of top-level items, preserved because forward
	// references across items are legal (spec.md §4.2) but diagnostics
	// and codegen should still be stable.
	Order []symtab.ID
}

// NewProgram returns an empty Program ready for internal/lower to populate.
func NewProgram() *Program {
	return &Program{
		Typedefs:   map[int]*types.Type{},
		Functions:  map[symtab.ID]*Function{},
		Nodes:      map[symtab.ID]*Node{},
		Interfaces: map[symtab.ID]*Interface{},
	}
}
