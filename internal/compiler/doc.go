// Package compiler orchestrates every middle-end pass in order over one
// parsed file: lowering, typedef resolution, type checking, unitary-node
// generation, causality analysis, and reactive lowering. It owns the
// single symtab.Table and diag.Bag for one compilation (spec.md §9: "no
// process-wide singleton") and tags the run with a session UUID threaded
// into every diagnostic and into the emitted plan.Artifact.
package compiler
