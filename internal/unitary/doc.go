// Package unitary implements spec.md §4.5: for each stream node with
// outputs o1..ok, derives k unitary sub-nodes — one per output, each
// keeping only the equations and inputs that output transitively
// depends on — and rewrites every remaining node-application call site
// to address the right sub-node with its arguments pruned to match.
package unitary
