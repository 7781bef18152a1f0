// Package plan defines the artifact spec.md §6's reactive lowering
// hands to an external code emitter: a structured description of a
// service's inputs, outputs, timers, handlers, and memory declarations.
// Nothing in this package executes the modeled event loop — per the
// Non-goals, code emission and runtime execution stay external.
package plan
