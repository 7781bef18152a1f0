package plan

import (
	"github.com/google/uuid"

	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/hir"
	"github.com/langrust/grust/internal/symtab"
)

// InputSpec describes one imported flow (spec.md §6 "Per-input").
type InputSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	ResetsTimer bool   `json:"resetsTimer"`
	Buffered    bool   `json:"buffered"`
}

// EmissionPoint is one (handler, equation) pair an output is emitted from.
type EmissionPoint struct {
	Handler    string `json:"handler"`
	EquationID int    `json:"equationId"`
}

// OutputSpec describes one exported flow (spec.md §6 "Per-output").
type OutputSpec struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	EmissionPoints []EmissionPoint `json:"emissionPoints"`
}

// TimerSpec describes one named timer (spec.md §6 "Per-timer"). Every
// timer always resets on fire (spec.md §4.7 step 1).
type TimerSpec struct {
	Name        string `json:"name"`
	DurationMS  int    `json:"durationMs"`
	ResetOnFire bool   `json:"resetOnFire"`
	Handler     string `json:"handler"`
}

// StepKind tags one primitive handler step (spec.md §6 "Per-handler").
type StepKind int

const (
	UpdateSignal StepKind = iota
	EmitOutput
	ResetTimer
	BatchStore
	StepNode
)

// Step is one primitive action a handler performs, in order. Only the
// fields relevant to Kind are meaningful. Expr carries the defining
// expression for documentation/debugging only — json:"-" because code
// emission formatting stays external (Non-goal).
type Step struct {
	Kind StepKind `json:"kind"`

	Signal symtab.ID `json:"signal,omitempty"` // UpdateSignal, BatchStore
	Output symtab.ID `json:"output,omitempty"` // EmitOutput
	Timer  string    `json:"timer,omitempty"`  // ResetTimer

	Unitary       symtab.ID   `json:"unitary,omitempty"`       // StepNode: parent node id
	UnitaryOutput symtab.ID   `json:"unitaryOutput,omitempty"` // StepNode: which output
	Inputs        []symtab.ID `json:"inputs,omitempty"`        // StepNode
	Outputs       []symtab.ID `json:"outputs,omitempty"`       // StepNode

	// Diagnostic is a template record a BatchStore step's runtime carries:
	// if a second arrival lands in this slot before the delay timer
	// fires, the runtime raises this record verbatim (spec.md §4.7 step
	// 3). The compiler itself never adds it to a diag.Bag -- the
	// violation can only be observed while the generated service runs.
	Diagnostic *diag.Record `json:"diagnostic,omitempty"`

	Expr *hir.FlowExpr `json:"-"`
}

// HandlerSpec is the ordered list of steps one event handler runs.
type HandlerSpec struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// MemoryDecl is one fby/last memory site (spec.md §6 "Memory declarations").
type MemoryDecl struct {
	Name string       `json:"name"`
	Type string       `json:"type"`
	Init hir.Constant `json:"init"`
}

// Artifact is the whole emitted service plan (spec.md §6 "Emitted
// artifact"). SessionID correlates an artifact with the compilation
// (and its diagnostics) that produced it.
type Artifact struct {
	SessionID uuid.UUID     `json:"sessionId"`
	Inputs    []InputSpec   `json:"inputs"`
	Outputs   []OutputSpec  `json:"outputs"`
	Timers    []TimerSpec   `json:"timers"`
	Handlers  []HandlerSpec `json:"handlers"`
	Memory    []MemoryDecl  `json:"memory"`
}

// Handler returns a's handler named name, creating it (appended to
// Handlers) on first use.
func (a *Artifact) Handler(name string) *HandlerSpec {
	for i := range a.Handlers {
		if a.Handlers[i].Name == name {
			return &a.Handlers[i]
		}
	}
	a.Handlers = append(a.Handlers, HandlerSpec{Name: name})
	return &a.Handlers[len(a.Handlers)-1]
}
