package types

import (
	"errors"
	"fmt"

	"github.com/langrust/grust/internal/diag"
)

// Names of the pseudo-functions the symbol table's global scope binds to
// a Polymorphic type (spec.md §4.1 "Global initialization").
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpEq  = "="
	OpNeq = "!="
	OpLt  = "<"
	OpLeq = "<="
	OpGt  = ">"
	OpGeq = ">="
	OpIf  = "if-then-else"
)

func numeric(t *Type) bool {
	return t != nil && (t.Kind == Integer || t.Kind == Float)
}

// arithmeticResolver builds the Resolver for +, -, *, /: both operands
// must be the same numeric type, and the result specializes to that type.
// Re-instantiable: every call computes a fresh Abstract, nothing is
// memoized on the Polymorphic value itself (spec.md §9: "an operator
// shared across call-sites must not memoize").
func arithmeticResolver(op string) Resolver {
	return func(args []*Type, loc diag.Location) (*Type, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: operator %q expects 2 arguments, got %d",
				errIncompatibleInputsNumber, op, len(args))
		}
		a, b := args[0], args[1]
		if !numeric(a) || !numeric(b) || !Equal(a, b) {
			return nil, fmt.Errorf("%w: operator %q is not defined for (%s, %s)",
				errIncompatibleType, op, a, b)
		}
		return NewAbstract([]*Type{a, b}, a), nil
	}
}

// comparisonResolver builds the Resolver for <, <=, >, >=: numeric
// operands of matching type, boolean result.
func comparisonResolver(op string) Resolver {
	return func(args []*Type, loc diag.Location) (*Type, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: operator %q expects 2 arguments, got %d",
				errIncompatibleInputsNumber, op, len(args))
		}
		a, b := args[0], args[1]
		if !numeric(a) || !numeric(b) || !Equal(a, b) {
			return nil, fmt.Errorf("%w: operator %q is not defined for (%s, %s)",
				errIncompatibleType, op, a, b)
		}
		return NewAbstract([]*Type{a, b}, TBoolean), nil
	}
}

// equalityResolver builds the Resolver for =, !=: any matching pair of
// types, boolean result.
func equalityResolver(op string) Resolver {
	return func(args []*Type, loc diag.Location) (*Type, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: operator %q expects 2 arguments, got %d",
				errIncompatibleInputsNumber, op, len(args))
		}
		a, b := args[0], args[1]
		if !Equal(a, b) {
			return nil, fmt.Errorf("%w: operator %q is not defined for (%s, %s)",
				errIncompatibleType, op, a, b)
		}
		return NewAbstract([]*Type{a, b}, TBoolean), nil
	}
}

// ifThenElseResolver builds the Resolver for if/then/else: a boolean
// condition and two branches of matching type, specializing to that type.
func ifThenElseResolver() Resolver {
	return func(args []*Type, loc diag.Location) (*Type, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("%w: if-then-else expects 3 arguments, got %d",
				errIncompatibleInputsNumber, len(args))
		}
		cond, then, els := args[0], args[1], args[2]
		if cond.Kind != Boolean {
			return nil, fmt.Errorf("%w: if condition must be bool, got %s", errIncompatibleType, cond)
		}
		if !Equal(then, els) {
			return nil, fmt.Errorf("%w: if branches must agree, got %s and %s", errIncompatibleType, then, els)
		}
		return NewAbstract([]*Type{cond, then, els}, then), nil
	}
}

var (
	errIncompatibleType         = errors.New(string(diag.IncompatibleType))
	errIncompatibleInputsNumber = errors.New(string(diag.IncompatibleInputsNumber))
)

// ErrIncompatibleType reports whether err originated from a Resolver
// rejecting an operand shape, so callers can map it to diag.IncompatibleType.
func ErrIncompatibleType(err error) bool { return errors.Is(err, errIncompatibleType) }

// ErrIncompatibleInputsNumber reports whether err originated from a
// Resolver rejecting an arity, so callers can map it to
// diag.IncompatibleInputsNumber.
func ErrIncompatibleInputsNumber(err error) bool {
	return errors.Is(err, errIncompatibleInputsNumber)
}

// Builtins returns the name -> Polymorphic type map for every built-in
// operator, used by symtab's global initialization (spec.md §4.1).
func Builtins() map[string]*Type {
	return map[string]*Type{
		OpAdd: NewPolymorphic(arithmeticResolver(OpAdd)),
		OpSub: NewPolymorphic(arithmeticResolver(OpSub)),
		OpMul: NewPolymorphic(arithmeticResolver(OpMul)),
		OpDiv: NewPolymorphic(arithmeticResolver(OpDiv)),
		OpEq:  NewPolymorphic(equalityResolver(OpEq)),
		OpNeq: NewPolymorphic(equalityResolver(OpNeq)),
		OpLt:  NewPolymorphic(comparisonResolver(OpLt)),
		OpLeq: NewPolymorphic(comparisonResolver(OpLeq)),
		OpGt:  NewPolymorphic(comparisonResolver(OpGt)),
		OpGeq: NewPolymorphic(comparisonResolver(OpGeq)),
		OpIf:  NewPolymorphic(ifThenElseResolver()),
	}
}
