// Package reactive implements spec.md §4.7's service-plan synthesis:
// turns an interface's flow declarations into the deterministic,
// event-driven plan.Artifact an external code emitter consumes — input/
// output channels, named timers, and per-handler step lists — without
// executing any of it (the modeled event loop stays data, per the
// Non-goals).
package reactive
