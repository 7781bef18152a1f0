// Package lower implements spec.md §4.2: the two-phase AST->HIR
// lowering pass. Phase A stores every top-level item's signature in the
// symbol table (inputs, outputs, locals, events); phase B traverses each
// body and resolves every name. A name is never resolved before phase A
// completes for the whole file, so forward references across items are
// legal.
//
// Desugarings performed here: implication `A ⇒ B` -> `(A ∧ B) ∨ ¬A` in
// contracts, the event pattern `ident?` -> `let ident = ident?`, and the
// `last x` / matching `init x = e;` pairing check (SPEC_FULL.md §10).
package lower
