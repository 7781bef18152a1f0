// Package typecheck implements spec.md §4.3: bidirectional type
// inference over HIR expressions and equations. Every Polymorphic
// operator reference is specialized in place at its call site by
// invoking the carried Resolver — never memoized, so the same operator
// re-specializes independently at every use (spec.md §9, exercised by
// internal/types's TestPolymorphicReinstantiation at the Resolver level
// and by this package's tests at the call-site level).
//
// Node application arity/type checks, component-call legality, and the
// interface-to-component Signal/Event/Timeout conversion rule (§9 Open
// Question (c)) live here too: they all need the same "what type does
// this expression have" machinery.
package typecheck
