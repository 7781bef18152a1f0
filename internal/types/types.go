// Package types implements the GRust type system of spec.md §3: scalars,
// arrays, tuples, user-defined structures/enumerations, function types,
// polymorphic built-in operators, and the interface-level and
// component-level stream types (Signal/Event/Timeout, SMEvent/SMTimeout).
package types

import (
	"fmt"
	"strings"

	"github.com/langrust/grust/internal/diag"
)

// Kind tags the variant a Type carries. Flat, 20+ cases, matched by
// switch everywhere — no inheritance, per spec.md §9's design note.
type Kind int

const (
	Integer Kind = iota
	Float
	Boolean
	Unit
	Time
	Array
	Tuple
	Structure
	Enumeration
	Abstract
	Polymorphic
	Signal
	Event
	Timeout
	SMEvent
	SMTimeout
	ComponentEvent
	Generic
	NotDefinedYet
	Any
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case Boolean:
		return "Boolean"
	case Unit:
		return "Unit"
	case Time:
		return "Time"
	case Array:
		return "Array"
	case Tuple:
		return "Tuple"
	case Structure:
		return "Structure"
	case Enumeration:
		return "Enumeration"
	case Abstract:
		return "Abstract"
	case Polymorphic:
		return "Polymorphic"
	case Signal:
		return "Signal"
	case Event:
		return "Event"
	case Timeout:
		return "Timeout"
	case SMEvent:
		return "SMEvent"
	case SMTimeout:
		return "SMTimeout"
	case ComponentEvent:
		return "ComponentEvent"
	case Generic:
		return "Generic"
	case NotDefinedYet:
		return "NotDefinedYet"
	case Any:
		return "Any"
	default:
		return "?"
	}
}

// Resolver is the function a Polymorphic type carries: given the actual
// argument types of an application, it returns the concrete Abstract type
// to specialize to, or a diagnostic if no instance applies.
type Resolver func(args []*Type, loc diag.Location) (*Type, error)

// Type is the tagged variant of spec.md §3. Only the fields relevant to
// Kind are meaningful; this mirrors a Rust enum's per-variant payload
// using one flat struct, which is the shape spec.md documents for Type
// itself (Array(T,n), Tuple(Tᵢ), Abstract(inputs,output), ...).
type Type struct {
	Kind Kind

	// Array, Signal, Event, Timeout, SMEvent, SMTimeout.
	Elem *Type
	// Array.
	Len int
	// Tuple.
	Elems []*Type
	// Structure, Enumeration, Generic, NotDefinedYet.
	Name string
	// Structure, Enumeration: id into the symbol table.
	ID int
	// Abstract.
	Inputs []*Type
	Output *Type
	// Polymorphic.
	Resolve Resolver
}

func scalar(k Kind) *Type { return &Type{Kind: k} }

// Built-in scalar singletons. Safe to share: scalars carry no mutable
// state and are never specialized in place.
var (
	TInteger = scalar(Integer)
	TFloat   = scalar(Float)
	TBoolean = scalar(Boolean)
	TUnit    = scalar(Unit)
	TTime    = scalar(Time)
	TAny     = scalar(Any)
)

// NewArray builds an Array(elem, n) type.
func NewArray(elem *Type, n int) *Type { return &Type{Kind: Array, Elem: elem, Len: n} }

// NewTuple builds a Tuple(elems...) type.
func NewTuple(elems ...*Type) *Type { return &Type{Kind: Tuple, Elems: elems} }

// NewStructure builds a Structure{name, id} reference type.
func NewStructure(name string, id int) *Type { return &Type{Kind: Structure, Name: name, ID: id} }

// NewEnumeration builds an Enumeration{name, id} reference type.
func NewEnumeration(name string, id int) *Type { return &Type{Kind: Enumeration, Name: name, ID: id} }

// NewAbstract builds a concrete function type.
func NewAbstract(inputs []*Type, output *Type) *Type {
	return &Type{Kind: Abstract, Inputs: inputs, Output: output}
}

// NewPolymorphic wraps a built-in operator's Resolver.
func NewPolymorphic(r Resolver) *Type { return &Type{Kind: Polymorphic, Resolve: r} }

// NewSignal, NewEvent, NewTimeout build the interface-level stream types.
func NewSignal(elem *Type) *Type  { return &Type{Kind: Signal, Elem: elem} }
func NewEvent(elem *Type) *Type   { return &Type{Kind: Event, Elem: elem} }
func NewTimeout(elem *Type) *Type { return &Type{Kind: Timeout, Elem: elem} }

// NewSMEvent, NewSMTimeout build the component-level event types produced
// by the signal/event/timeout conversion rule at component-call
// boundaries (spec.md §4.3, §9 Open Question (c)).
func NewSMEvent(elem *Type) *Type   { return &Type{Kind: SMEvent, Elem: elem} }
func NewSMTimeout(elem *Type) *Type { return &Type{Kind: SMTimeout, Elem: elem} }

// NewGeneric and NewNotDefinedYet build name placeholders.
func NewGeneric(name string) *Type       { return &Type{Kind: Generic, Name: name} }
func NewNotDefinedYet(name string) *Type { return &Type{Kind: NotDefinedYet, Name: name} }

// TComponentEvent is the singleton ComponentEvent scalar.
var TComponentEvent = scalar(ComponentEvent)

// String renders a Type for diagnostics, following the Display impl of
// original_source/compiler/src/common/type.rs.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case Integer:
		return "int"
	case Float:
		return "float"
	case Boolean:
		return "bool"
	case Unit:
		return "()"
	case Time:
		return "time"
	case Array:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
	case Tuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Structure, Enumeration:
		return t.Name
	case Abstract:
		parts := make([]string, len(t.Inputs))
		for i, e := range t.Inputs {
			parts[i] = e.String()
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), t.Output)
	case Polymorphic:
		return "<polymorphic>"
	case Signal:
		return fmt.Sprintf("signal %s", t.Elem)
	case Event:
		return fmt.Sprintf("event %s", t.Elem)
	case Timeout:
		return fmt.Sprintf("event timeout(%s)", t.Elem)
	case SMEvent:
		return fmt.Sprintf("%s?", t.Elem)
	case SMTimeout:
		return fmt.Sprintf("%s!", t.Elem)
	case ComponentEvent:
		return "ComponentEvent"
	case Generic:
		return t.Name
	case NotDefinedYet:
		return t.Name
	case Any:
		return "any"
	default:
		return "?"
	}
}

// Equal reports structural equality, ignoring Location (Type carries
// none) and Resolver identity (two Polymorphic types are never compared;
// by the time comparison matters they have been specialized to Abstract).
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Array:
		return a.Len == b.Len && Equal(a.Elem, b.Elem)
	case Tuple:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case Structure, Enumeration:
		return a.ID == b.ID
	case Abstract:
		if len(a.Inputs) != len(b.Inputs) || !Equal(a.Output, b.Output) {
			return false
		}
		for i := range a.Inputs {
			if !Equal(a.Inputs[i], b.Inputs[i]) {
				return false
			}
		}
		return true
	case Signal, Event, Timeout, SMEvent, SMTimeout:
		return Equal(a.Elem, b.Elem)
	case Generic, NotDefinedYet:
		return a.Name == b.Name
	case Any:
		return true
	default:
		return true // scalars: Kind equality is sufficient
	}
}

// IsPlaceholder reports whether t still needs typedef or inference
// resolution (spec.md §3 invariant: none may remain after their passes).
func IsPlaceholder(t *Type) bool {
	return t != nil && (t.Kind == NotDefinedYet || t.Kind == Polymorphic)
}
