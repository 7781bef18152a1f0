package compiler

import (
	"github.com/google/uuid"

	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/causality"
	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/lower"
	"github.com/langrust/grust/internal/plan"
	"github.com/langrust/grust/internal/reactive"
	"github.com/langrust/grust/internal/symtab"
	"github.com/langrust/grust/internal/typecheck"
	"github.com/langrust/grust/internal/typedef"
	"github.com/langrust/grust/internal/unitary"
)

// Options configures one Compiler instance.
type Options struct {
	// Logger receives lifecycle events (one per pass). Defaults to a
	// discard logger if nil.
	Logger SLogger
}

// Compiler runs the middle-end pipeline for one compilation at a time;
// it holds no state across Compile calls beyond Options.
type Compiler struct {
	opt Options
}

// New returns a Compiler configured by opt.
func New(opt Options) *Compiler {
	if opt.Logger == nil {
		opt.Logger = DefaultSLogger()
	}
	return &Compiler{opt: opt}
}

// Result is everything one Compile call produced: the symbol table and
// HIR program (useful for tooling/debugging), the accumulated
// diagnostics, and one plan.Artifact per interface declared in the file,
// in declaration order. Artifacts is empty if Diagnostics.HasErrors().
type Result struct {
	SessionID   uuid.UUID
	Table       *symtab.Table
	Program     *hir.Program
	Diagnostics *diag.Bag
	Artifacts   []*plan.Artifact
}

// Compile runs every pass in spec.md §2's pipeline order over file: AST→
// HIR lowering, typedef resolution, type checking, unitary-node
// generation, causality analysis, and reactive lowering. Each
// compilation gets its own symtab.Table and diag.Bag (spec.md §9: "no
// process-wide singleton"), tagged with a fresh session UUID threaded
// into every diag.Record and into each emitted plan.Artifact.SessionID.
//
// The bag is checked at two points: an error-severity diagnostic left by
// lowering, typedef resolution or type checking halts the pipeline
// before unitary generation, and one left by unitary generation or
// causality analysis halts it before reactive lowering — each later pass
// assumes the HIR it receives already type-checks, so running it over
// ill-typed input would only produce noise on top of the real error.
func (c *Compiler) Compile(file *ast.File) *Result {
	session := uuid.New()
	bag := diag.NewBag(session)
	tab := symtab.New()
	tab.Initialize()

	c.opt.Logger.Info("lowering AST to HIR", "session", session)
	prog := lower.LowerProgram(file, tab, bag)

	c.opt.Logger.Info("resolving typedefs")
	typedef.Resolve(file, tab, bag)

	c.opt.Logger.Info("type checking")
	c.typeCheck(prog, tab, bag)
	if bag.HasErrors() {
		c.opt.Logger.Warn("type checking failed, stopping before unitary generation")
		return &Result{SessionID: session, Table: tab, Program: prog, Diagnostics: bag}
	}

	c.opt.Logger.Info("generating unitary nodes")
	unitary.GenerateProgram(prog, tab, bag)

	c.opt.Logger.Info("analyzing causality")
	causality.AnalyzeProgram(prog, tab, bag)
	if bag.HasErrors() {
		c.opt.Logger.Warn("causality analysis failed, stopping before reactive lowering")
		return &Result{SessionID: session, Table: tab, Program: prog, Diagnostics: bag}
	}

	c.opt.Logger.Info("synthesizing reactive plans")
	artifacts := c.synthesize(prog, tab, session, bag)

	return &Result{SessionID: session, Table: tab, Program: prog, Diagnostics: bag, Artifacts: artifacts}
}

func (c *Compiler) typeCheck(prog *hir.Program, tab *symtab.Table, bag *diag.Bag) {
	for _, id := range prog.Order {
		switch tab.Entry(id).Kind {
		case symtab.FunctionKind:
			if fn := prog.Functions[id]; fn != nil {
				typecheck.Infer(fn.Body, tab, bag)
			}
		case symtab.NodeKind:
			if node := prog.Nodes[id]; node != nil {
				typecheck.CheckNode(node, tab, bag)
				typecheck.CheckContract(node.Contract, tab, bag)
			}
		case symtab.InterfaceKind:
			if ifc := prog.Interfaces[id]; ifc != nil {
				typecheck.CheckInterface(ifc, tab, bag)
			}
		}
	}
}

func (c *Compiler) synthesize(prog *hir.Program, tab *symtab.Table, session uuid.UUID, bag *diag.Bag) []*plan.Artifact {
	var artifacts []*plan.Artifact
	for _, id := range prog.Order {
		ifc, ok := prog.Interfaces[id]
		if !ok {
			continue
		}
		artifacts = append(artifacts, reactive.Synthesize(ifc, prog, tab, session, bag))
	}
	return artifacts
}
