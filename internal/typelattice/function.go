package typelattice

import (
	"fmt"
	"strings"
)

// functionType is contravariant in its argument types and covariant in
// its return type, per spec §4.2.
type functionType struct {
	args   []Type // fixed arity for simplicity; variadic is out of scope
	result Type
}

func Function(args []Type, result Type) Type {
	return functionType{args: append([]Type(nil), args...), result: result}
}

func (t functionType) String() string {
	parts := make([]string, len(t.args))
	for i, a := range t.args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("[%s]->%s", strings.Join(parts, ", "), t.result)
}

func (t functionType) isSubtypeOfDispatch(other Type) bool {
	ot, ok := other.(functionType)
	if !ok || len(ot.args) != len(t.args) {
		return false
	}
	// Contravariant in arguments: t's params must be *wider* than ot's.
	for i := range t.args {
		if !IsSubtypeOf(ot.args[i], t.args[i]) {
			return false
		}
	}
	// Covariant in return type.
	return IsSubtypeOf(t.result, ot.result)
}

func (t functionType) unionDispatch(other Type) Type {
	ot, ok := other.(functionType)
	if !ok || len(ot.args) != len(t.args) {
		return Any
	}
	args := make([]Type, len(t.args))
	for i := range t.args {
		args[i] = TypeIntersection(t.args[i], ot.args[i]) // contravariant union meets
	}
	return Function(args, TypeUnion(t.result, ot.result))
}

func (t functionType) intersectionDispatch(other Type) Type {
	ot, ok := other.(functionType)
	if !ok || len(ot.args) != len(t.args) {
		return Bottom
	}
	args := make([]Type, len(t.args))
	for i := range t.args {
		args[i] = TypeUnion(t.args[i], ot.args[i])
	}
	r := TypeIntersection(t.result, ot.result)
	if _, bot := r.(bottomType); bot {
		return Bottom
	}
	return Function(args, r)
}
