// Package ast defines the shape of the parser's output (spec.md §1, §6):
// typedefs, functions, components, external declarations, and interface
// statements (import / export / declaration / instantiation / service),
// plus the untyped, unresolved expression tree the parser builds from
// source text.
//
// Lexing and parsing themselves are out of scope (spec.md §1 Non-goals):
// this package is the contract a real parser must satisfy to feed
// internal/lower. Names here are plain strings; internal/lower resolves
// every one of them through internal/symtab and produces internal/hir.
package ast
