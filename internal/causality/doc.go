// Package causality implements spec.md §4.6: per unitary sub-node,
// verifies that every cycle in its signal graph carries strictly
// positive delay (rejecting zero-delay cycles as InstantaneousLoop) and
// derives the deterministic topological schedule equations execute in
// within one reaction step.
package causality
