// Package hir is the typed intermediate representation of spec.md §3:
// every reference is by symtab.ID (never by name), every expression node
// carries an optional type assigned by internal/typecheck, and the
// Node/UnitaryNode/Flow/Contract shapes mirror the spec's data model
// exactly. HIR trees own their subtrees exclusively — there are no
// cycles in HIR, only in the per-node Graph values internal/unitary
// builds, where cycles are values, not references (spec.md §3
// "Ownership").
package hir
