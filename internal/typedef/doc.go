// Package typedef implements spec.md §4.4: the typedef resolution pass
// that runs after internal/lower and before internal/typecheck.
//
// internal/lower already resolves every struct-literal/enum-literal/
// pattern's type *name* to its typedef's symtab id (the scoping
// question, answered the same way a node-call or function-call name is
// answered). What's still missing at that point is the typedef's own
// payload — a struct's field list, an enum's element list — and every
// NotDefinedYet(name) placeholder that a forward-referenced named type
// left behind in a signal's, function's, or field's declared type. This
// package fills both in, and resolves pure alias chains (detecting
// cycles) along the way.
package typedef
