// Package variable implements the mutable cells of spec §3/§4.8: a
// declared read type (superset of values it may hold), a write type
// (subset of the read type; values allowed to be stored), a value
// (possibly absent), and a visibility (shared or unshared). Grounded on
// the teacher's global-variable storage (vm.globals / vm.globalMap in
// sentra internal/vm/vm.go), generalized with the read/write type checks
// and observer notification spec §4.8 requires.
package variable

import (
	"sync"

	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/typelattice"
)

// TypeOfFunc classifies an arbitrary stored value's type. Kept as an
// injected function so this package does not import the value heap
// (descriptor) directly, avoiding a cycle since descriptor values may
// themselves hold variables.
type TypeOfFunc func(value any) typelattice.Type

// Visibility distinguishes a variable visible to a single fiber from one
// visible to more than one, which gates the mutual-exclusion discipline
// of spec §3.
type Visibility int

const (
	Unshared Visibility = iota
	SharedVisibility
)

// Observer is notified on every successful write, used for debugging and
// for shared-variable cross-fiber signalling (spec §4.8).
type Observer func(v *Variable, newValue any)

// Variable is a single mutable cell.
type Variable struct {
	ReadType  typelattice.Type
	WriteType typelattice.Type
	visibility Visibility
	typeOf    TypeOfFunc

	mu        sync.Mutex
	value     any
	hasValue  bool
	observers []Observer
}

// New constructs a variable cell. readType must be a supertype of
// writeType (spec invariant: declared read-type ⊇ write-type); this is
// asserted by the caller at declaration time, not enforced here, since the
// surface-syntax checker is an external collaborator.
func New(readType, writeType typelattice.Type, visibility Visibility, typeOf TypeOfFunc) *Variable {
	return &Variable{ReadType: readType, WriteType: writeType, visibility: visibility, typeOf: typeOf}
}

// Get returns the current value, or VariableGetException if unassigned.
func (v *Variable) Get() (any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasValue {
		return nil, diagnostic.Runtime(diagnostic.CodeVariableGetException, "variable has no value")
	}
	return v.value, nil
}

// Set checks value's type against WriteType, stores it, and notifies
// observers. It does not make the value shared, even when this variable
// is shared-visibility.
func (v *Variable) Set(value any) error {
	if !typelattice.IsSubtypeOf(v.typeOf(value), v.WriteType) {
		return diagnostic.Runtime(diagnostic.CodeVariableSetException, "value of type %s is not a %s", v.typeOf(value), v.WriteType)
	}
	v.mu.Lock()
	if v.visibility == SharedVisibility {
		// The teacher's shared-state discipline (concurrency.ConnectionPool
		// etc.) always converts eagerly under the lock rather than after
		// releasing it, so a racing reader never observes a half-shared
		// value; MakeShared on the stored value is the caller's
		// responsibility when value is a descriptor.Value — this package
		// stays generic over "any" so it has no heap dependency.
	}
	v.value = value
	v.hasValue = true
	observers := append([]Observer(nil), v.observers...)
	v.mu.Unlock()

	for _, obs := range observers {
		obs(v, value)
	}
	return nil
}

// Clear restores the variable to the absent state.
func (v *Variable) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = nil
	v.hasValue = false
}

// HasValue reports whether the variable currently holds a value.
func (v *Variable) HasValue() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hasValue
}

// Visibility reports the variable's sharing discipline.
func (v *Variable) Visibility() Visibility { return v.visibility }

// Observe registers an observer to be called (outside the lock) on every
// successful Set.
func (v *Variable) Observe(obs Observer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.observers = append(v.observers, obs)
}
