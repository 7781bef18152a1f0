// Package diag implements the compiler's error-accumulation model.
//
// Passes never stop at the first error within an independent sub-tree:
// they append a Record to a caller-provided Bag and keep enumerating, so
// that one compilation surfaces as many diagnostics as analysis allows.
// A compilation is successful iff the Bag holds no error-severity record
// when the last pass returns.
package diag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Kind is the closed set of diagnostic kinds a pass may report.
type Kind string

// The closed set of error kinds from spec.md §7, plus the two Open
// Question resolutions from §9 (Unsupported, UnsupportedFlowConversion).
const (
	UnknownSignal             Kind = "UnknownSignal"
	UnknownNode               Kind = "UnknownNode"
	UnknownFunction           Kind = "UnknownFunction"
	UnknownFlow               Kind = "UnknownFlow"
	UnknownOutputSignal       Kind = "UnknownOutputSignal"
	UnknownField              Kind = "UnknownField"
	DuplicateName             Kind = "DuplicateName"
	IncompatibleType          Kind = "IncompatibleType"
	IncompatibleInputsNumber  Kind = "IncompatibleInputsNumber"
	ExpectAbstraction         Kind = "ExpectAbstraction"
	ExpectArray               Kind = "ExpectArray"
	ExpectStructure           Kind = "ExpectStructure"
	ExpectOption              Kind = "ExpectOption"
	MissingField              Kind = "MissingField"
	ExtraField                Kind = "ExtraField"
	NodeCall                  Kind = "NodeCall"
	ComponentCall             Kind = "ComponentCall"
	CyclicType                Kind = "CyclicType"
	InstantaneousLoop         Kind = "InstantaneousLoop"
	NoTypeInference           Kind = "NoTypeInference"
	UnusedInput               Kind = "UnusedInput"               // warning, not fatal
	InputTooFrequent          Kind = "InputTooFrequent"          // runtime diagnostic, emitted into the plan
	MissingOutputDefinition   Kind = "MissingOutputDefinition"
	MissingInitEquation       Kind = "MissingInitEquation"       // SPEC_FULL.md §10
	Unsupported               Kind = "Unsupported"
	UnsupportedFlowConversion Kind = "UnsupportedFlowConversion"
)

// Severity classifies a Kind as a fatal error or an advisory warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Severity reports whether kind is fatal to the compilation.
func (k Kind) Severity() Severity {
	switch k {
	case UnusedInput:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Location is opaque source-span data carried for diagnostics. Equality
// of Location values is never used for semantic comparisons elsewhere in
// the compiler; it exists purely to point a human at source text.
type Location struct {
	File      string
	Line, Col int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Record is one diagnostic: a kind, the location it was raised at, and a
// human-readable detail string.
type Record struct {
	Kind     Kind
	Location Location
	Detail   string
	Session  uuid.UUID
}

func (r Record) String() string {
	return fmt.Sprintf("%s: %s: %s", r.Location, r.Kind, r.Detail)
}

// Bag accumulates Records across every pass of one compilation. It is
// safe for concurrent Add calls; internal/lower runs its phase B items on
// errgroup goroutines (one active at a time) that all add to one Bag.
type Bag struct {
	mu      sync.Mutex
	session uuid.UUID
	records []Record
}

// NewBag returns an empty Bag tagged with session, the UUID threaded
// through one compiler.Compile invocation.
func NewBag(session uuid.UUID) *Bag {
	return &Bag{session: session}
}

// Add appends a diagnostic.
func (b *Bag) Add(kind Kind, loc Location, format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, Record{
		Kind:     kind,
		Location: loc,
		Detail:   fmt.Sprintf(format, args...),
		Session:  b.session,
	})
}

// HasErrors reports whether any error-severity (non-warning) record has
// been accumulated. Per spec.md §4.8, no partial artifact is emitted if
// this is true at the end of the last pass.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.records {
		if r.Kind.Severity() == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity records, in insertion order.
func (b *Bag) Errors() []Record {
	return b.filter(SeverityError)
}

// Warnings returns only the warning-severity records, in insertion order.
func (b *Bag) Warnings() []Record {
	return b.filter(SeverityWarning)
}

func (b *Bag) filter(sev Severity) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, 0, len(b.records))
	for _, r := range b.records {
		if r.Kind.Severity() == sev {
			out = append(out, r)
		}
	}
	return out
}

// All returns every accumulated record, sorted by location for stable
// rendering (insertion order from a parallel pass is not deterministic).
func (b *Bag) All() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, len(b.records))
	copy(out, b.records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location.File != out[j].Location.File {
			return out[i].Location.File < out[j].Location.File
		}
		if out[i].Location.Line != out[j].Location.Line {
			return out[i].Location.Line < out[j].Location.Line
		}
		return out[i].Location.Col < out[j].Location.Col
	})
	return out
}

// Len returns the total number of accumulated records.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
