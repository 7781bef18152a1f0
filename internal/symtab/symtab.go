// Package symtab implements the process-wide symbol table of spec.md
// §4.1: a flat, id-indexed entry vector, a stack of name->id scopes, and
// an owner-aware index that lets a later pass restore a previously
// analyzed node's lexical scope.
//
// Modeled on breadchris-yaegi's scope/Interpreter.scopes pair: a push/pop
// local scope stack for the current traversal, plus a side index
// (Interpreter.scopes is indexed by import path; restoreContext here is
// indexed by node id) that lets a later pass re-open a scope it isn't
// currently inside.
package symtab

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/mod/module"

	"github.com/langrust/grust/internal/diag"
	"github.com/langrust/grust/internal/types"
)

// ID is a process-unique positive integer identifying one named entity.
// Equality of IDs implies semantic identity (spec.md §3).
type ID int

// Kind is the entry's named-entity category.
type Kind int

const (
	SignalKind Kind = iota
	EventElementKind
	EventEnumKind
	EventKind
	NodeKind
	FunctionKind
	TypedefKind
	InterfaceKind
	FlowKind
)

func (k Kind) String() string {
	return [...]string{"Signal", "EventElement", "EventEnum", "Event", "Node", "Function", "Typedef", "Interface", "Flow"}[k]
}

// Scope classifies where, within its owner, a signal/event lives.
type Scope int

const (
	Input Scope = iota
	Output
	Local
	NoScope // typedefs, functions, nodes, interfaces: not signal-scoped
)

// Entry is the symbol table's one record per id (spec.md §3 "Symbol
// Table entry").
type Entry struct {
	ID    ID
	Name  string
	Kind  Kind
	Scope Scope
	Owner ID // 0 means "no owner"
	Type  *types.Type
	Path  string // qualified path, for imports/exports; "" if none

	// Populated for Kind == NodeKind (components are nodes with PeriodMS set).
	Inputs   []ID
	Events   []ID
	Outputs  []ID
	Locals   []ID
	PeriodMS *int

	// Populated for Kind == TypedefKind, by internal/typedef.
	Fields   []FieldDef // struct: field name -> declared type, in order
	Elements []string   // enum: element names, in order
}

// FieldDef is one struct field's name and resolved type.
type FieldDef struct {
	Name string
	Type *types.Type
}

// Table is one compilation's symbol table. Created at the start of a
// compile, threaded explicitly through every pass (spec.md §9: "no
// process-wide singleton"), and discarded when the HIR is complete.
type Table struct {
	entries []*Entry         // index 0 unused; ID 1 is entries[1]
	scopes  []map[string]ID  // stack; scopes[0] is global
	saved   map[ID]savedScope // owner id -> its locals' name->id map, for RestoreContext
}

type savedScope struct {
	names map[string]ID
	owner ID
}

// New returns an empty Table with only the global scope pushed.
func New() *Table {
	t := &Table{
		scopes: []map[string]ID{{}},
		saved:  map[ID]savedScope{},
		entries: make([]*Entry, 1), // entries[0] is the unused zero id
	}
	return t
}

// Initialize pre-populates the global scope with the polymorphic type
// resolvers for built-in operators, per spec.md §4.1 "Global initialization".
func (t *Table) Initialize() {
	names := maps.Keys(types.Builtins())
	sort.Strings(names) // deterministic insertion order
	builtins := types.Builtins()
	for _, name := range names {
		id := t.alloc(name, FunctionKind, NoScope, 0, builtins[name], "")
		t.scopes[0][name] = id
	}
}

func (t *Table) alloc(name string, kind Kind, scope Scope, owner ID, typ *types.Type, path string) ID {
	id := ID(len(t.entries))
	t.entries = append(t.entries, &Entry{
		ID: id, Name: name, Kind: kind, Scope: scope, Owner: owner, Type: typ, Path: path,
	})
	return id
}

// Entry returns the entry for id. Panics if id is out of range: a
// dangling id is a compiler bug, not a user-facing diagnostic.
func (t *Table) Entry(id ID) *Entry {
	return t.entries[id]
}

// current returns the innermost scope.
func (t *Table) current() map[string]ID { return t.scopes[len(t.scopes)-1] }

// lookup resolves name in the current scope, falling through to outer
// scopes (innermost first), exactly as breadchris-yaegi's scope chain
// walks sc.sym then sc.anc.sym.
func (t *Table) lookup(name string) (ID, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if id, ok := t.scopes[i][name]; ok {
			return id, true
		}
	}
	return 0, false
}

// Local pushes a new local scope (entering a node/interface body).
func (t *Table) Local() { t.scopes = append(t.scopes, map[string]ID{}) }

// Global pops the innermost local scope.
func (t *Table) Global() {
	if len(t.scopes) > 1 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}

// RestoreContext re-opens a previously analyzed node's lexical scope,
// for a later pass re-entering its body (spec.md §4.1). It returns a
// restore function that must be called to pop the re-opened scope.
func (t *Table) RestoreContext(nodeID ID) (restore func(), err error) {
	saved, ok := t.saved[nodeID]
	if !ok {
		return nil, fmt.Errorf("symtab: no saved scope for node %d", nodeID)
	}
	cp := make(map[string]ID, len(saved.names))
	maps.Copy(cp, saved.names)
	t.scopes = append(t.scopes, cp)
	return func() { t.Global() }, nil
}

// SaveContext snapshots the current (innermost) scope under owner, so a
// later pass can RestoreContext(owner).
func (t *Table) SaveContext(owner ID) {
	cp := make(map[string]ID, len(t.current()))
	maps.Copy(cp, t.current())
	t.saved[owner] = savedScope{names: cp, owner: owner}
}

// insert is the shared implementation behind the exported InsertXxx
// helpers: it binds name in the current scope, enforcing uniqueness when
// requireUnique is set.
func (t *Table) insert(name string, kind Kind, scope Scope, typ *types.Type, requireUnique bool, owner ID, path string, loc diag.Location) (ID, error) {
	if requireUnique {
		if _, ok := t.current()[name]; ok {
			return 0, fmt.Errorf("%s: %w: %q already bound in this scope", loc, errDuplicateName, name)
		}
	}
	id := t.alloc(name, kind, scope, owner, typ, path)
	t.current()[name] = id
	return id, nil
}

var errDuplicateName = errors.New(string(diag.DuplicateName))

// IsDuplicateName reports whether err is the sentinel InsertSignal raises
// on a redundant binding.
func IsDuplicateName(err error) bool { return errors.Is(err, errDuplicateName) }

// InsertSignal binds a new signal in the current scope.
func (t *Table) InsertSignal(name string, scope Scope, typ *types.Type, requireUnique bool, owner ID, loc diag.Location) (ID, error) {
	return t.insert(name, SignalKind, scope, typ, requireUnique, owner, "", loc)
}

// InsertFunction binds a user-defined function.
func (t *Table) InsertFunction(name string, typ *types.Type, owner ID, loc diag.Location) (ID, error) {
	return t.insert(name, FunctionKind, NoScope, typ, true, owner, "", loc)
}

// InsertTypedef binds a typedef name (struct/enum/array alias).
func (t *Table) InsertTypedef(name string, typ *types.Type, loc diag.Location) (ID, error) {
	return t.insert(name, TypedefKind, NoScope, typ, true, 0, "", loc)
}

// InsertFlow binds an interface-level flow, optionally with a qualified
// import/export path (validated as a module-style path per
// SPEC_FULL.md §4.10).
func (t *Table) InsertFlow(name string, typ *types.Type, owner ID, path string, loc diag.Location) (ID, error) {
	if path != "" {
		if err := module.CheckImportPath(path); err != nil {
			return 0, fmt.Errorf("%s: invalid flow path %q: %w", loc, path, err)
		}
	}
	return t.insert(name, FlowKind, NoScope, typ, true, owner, path, loc)
}

// InsertNode registers a node/component signature (phase A of lowering);
// inputs/events/outputs/locals are filled in afterward via Entry(id).
// periodMS is stored on the entry immediately: IsComponent depends on it,
// and nothing else in the pipeline sets it afterward.
func (t *Table) InsertNode(name string, periodMS *int, loc diag.Location) (ID, error) {
	id, err := t.insert(name, NodeKind, NoScope, nil, true, 0, "", loc)
	if err != nil {
		return 0, err
	}
	t.entries[id].PeriodMS = periodMS
	return id, nil
}

// InsertInterface registers a top-level interface/service block.
func (t *Table) InsertInterface(name string, loc diag.Location) (ID, error) {
	return t.insert(name, InterfaceKind, NoScope, nil, true, 0, "", loc)
}

// InsertEventElement registers one element of the implicit
// "{NodeName}Event" enumeration contributed by an event input.
func (t *Table) InsertEventElement(enumID ID, elementName string, payload *types.Type, loc diag.Location) (ID, error) {
	return t.insert(elementName, EventElementKind, NoScope, payload, true, enumID, "", loc)
}

// InsertEventEnum registers the "{NodeName}Event" enumeration itself.
func (t *Table) InsertEventEnum(nodeID ID, nodeName string, loc diag.Location) (ID, error) {
	name := nodeName + "Event"
	return t.insert(name, EventEnumKind, NoScope, types.NewEnumeration(name, int(nodeID)), true, nodeID, "", loc)
}

// InsertEvent registers an event input: per spec.md §4.1, "each event
// input implicitly contributes (a) an element of an enumeration named
// {NodeName}Event and (b) a scrutinee identifier {nodeName}_event of
// that enumeration type." InsertEvent creates (or reuses) the enum, adds
// the element, and binds the scrutinee, returning (elementID, eventID).
func (t *Table) InsertEvent(nodeID ID, nodeName, eventName string, payload *types.Type, loc diag.Location) (elementID, scrutineeID ID, err error) {
	enumName := nodeName + "Event"
	enumID, ok := t.lookup(enumName)
	if !ok {
		enumID, err = t.InsertEventEnum(nodeID, nodeName, loc)
		if err != nil {
			return 0, 0, err
		}
	}
	elementID, err = t.InsertEventElement(enumID, eventName, payload, loc)
	if err != nil {
		return 0, 0, err
	}
	scrutineeName := nodeName + "_event"
	scrutineeID, ok = t.lookup(scrutineeName)
	if !ok {
		scrutineeID, err = t.insert(scrutineeName, EventKind, Local, t.Entry(enumID).Type, false, nodeID, "", loc)
		if err != nil {
			return 0, 0, err
		}
	}
	return elementID, scrutineeID, nil
}

func (t *Table) resolve(name string, kind Kind, errKind diag.Kind, loc diag.Location) (ID, error) {
	id, ok := t.lookup(name)
	if !ok || t.entries[id].Kind != kind {
		return 0, fmt.Errorf("%s: %s: %q", loc, errKind, name)
	}
	return id, nil
}

// GetSignalID resolves a signal name in current + outer scopes.
func (t *Table) GetSignalID(name string, loc diag.Location) (ID, error) {
	return t.resolve(name, SignalKind, diag.UnknownSignal, loc)
}

// GetSignalIDIfBound reports whether name is already bound as a signal in
// the current scope chain, without raising a diagnostic when it is not.
// internal/lower uses this to tell an equation target's first definition
// (which introduces a new local) from a later equation re-defining an
// already-declared input/output/local.
func (t *Table) GetSignalIDIfBound(name string) (ID, bool) {
	id, ok := t.lookup(name)
	if !ok || t.entries[id].Kind != SignalKind {
		return 0, false
	}
	return id, true
}

// GetNodeID resolves a node (or component) name.
func (t *Table) GetNodeID(name string, loc diag.Location) (ID, error) {
	return t.resolve(name, NodeKind, diag.UnknownNode, loc)
}

// GetFlowID resolves an interface-level flow name.
func (t *Table) GetFlowID(name string, loc diag.Location) (ID, error) {
	return t.resolve(name, FlowKind, diag.UnknownFlow, loc)
}

// GetFunctionID resolves a user or built-in function name.
func (t *Table) GetFunctionID(name string, loc diag.Location) (ID, error) {
	return t.resolve(name, FunctionKind, diag.UnknownFunction, loc)
}

// GetTypedefID resolves a struct/enum/alias typedef name.
func (t *Table) GetTypedefID(name string, loc diag.Location) (ID, error) {
	return t.resolve(name, TypedefKind, diag.Unsupported, loc)
}

// FieldType looks up one field's resolved type on a struct typedef id.
func (t *Table) FieldType(typedefID ID, field string) (*types.Type, bool) {
	for _, f := range t.entries[typedefID].Fields {
		if f.Name == field {
			return f.Type, true
		}
	}
	return nil, false
}

// ElementIndex looks up the declaration-order index of an enum element.
func (t *Table) ElementIndex(typedefID ID, elem string) (int, bool) {
	for i, e := range t.entries[typedefID].Elements {
		if e == elem {
			return i, true
		}
	}
	return 0, false
}

// IsComponent reports whether id names a node with a declared period.
func (t *Table) IsComponent(id ID) bool {
	e := t.entries[id]
	return e.Kind == NodeKind && e.PeriodMS != nil
}

// NodeInputs returns the ordered input ids of a node.
func (t *Table) NodeInputs(id ID) []ID { return t.entries[id].Inputs }

// NodeOutputs returns the ordered output ids of a node.
func (t *Table) NodeOutputs(id ID) []ID { return t.entries[id].Outputs }

// Names returns every bound name across all scopes (debug/dump use),
// sorted for deterministic output.
func (t *Table) Names() []string {
	seen := map[string]struct{}{}
	for _, sc := range t.scopes {
		for k := range sc {
			seen[k] = struct{}{}
		}
	}
	out := maps.Keys(seen)
	sort.Strings(out)
	return out
}

// Len returns the number of allocated entries (ids 1..Len()).
func (t *Table) Len() int { return len(t.entries) - 1 }
