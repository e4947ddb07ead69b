// Package descriptor implements the uniform value header of spec §4.1: a
// heap record carrying a descriptor reference, integer slots, and object
// slots, with all polymorphic behavior living in the descriptor rather
// than the record. It is grounded on the teacher's NaN-boxed Value/Object
// header (sentra internal/vmregister/value.go), generalized from a closed
// tag switch into an explicit descriptor table so new variants can be
// added without touching existing ones.
package descriptor

import "fmt"

// Mutability is a descriptor attribute, never a per-value flag: swapping a
// value's descriptor to the immutable or shared sibling is how a value's
// mutability changes. Transitions are one-way: Mutable -> Immutable -> Shared.
type Mutability int

const (
	Mutable Mutability = iota
	Immutable
	Shared
)

func (m Mutability) String() string {
	switch m {
	case Mutable:
		return "mutable"
	case Immutable:
		return "immutable"
	case Shared:
		return "shared"
	default:
		return "mutability(?)"
	}
}

// Family groups descriptors that must be able to compare against each
// other for equality — the "known receiver variants" of spec's
// double-dispatch equality rule. A descriptor only needs to implement
// EqualsWith for families it actually shares content with; each
// descriptor's EqualsWith answers false for a peer of any other family.
type Family int

const (
	FamilyInteger Family = iota
	FamilyTuple
	FamilyMap
	FamilySet
	FamilyAtom
	FamilyFunction
	FamilyContinuation
	FamilyVariable
	FamilyType
	FamilyPhrase
	FamilyIndirection
)

// Value is the uniform heap record of spec §3: a descriptor plus integer
// slots and object slots. Integer slots hold fixed-width scalars (bytes of
// a byte-tuple, an integer's magnitude words, a splice-tuple's bounds);
// object slots hold references to other values.
type Value struct {
	desc Descriptor
	ints []int64
	objs []*Value
}

// NewValue constructs a value record under the given descriptor. Callers
// should use the per-variant constructors (NewByteTuple, NewInteger,
// ...) instead of calling this directly.
func NewValue(d Descriptor, ints []int64, objs []*Value) *Value {
	return &Value{desc: d, ints: ints, objs: objs}
}

func (v *Value) Descriptor() Descriptor { return v.desc }
func (v *Value) IntSlot(i int) int64    { return v.ints[i] }
func (v *Value) IntSlotCount() int      { return len(v.ints) }
func (v *Value) ObjSlot(i int) *Value   { return v.objs[i] }
func (v *Value) ObjSlotCount() int      { return len(v.objs) }

// setDescriptor installs a new descriptor on the record in place. This is
// the only way a value's representation or mutability ever changes;
// identity (pointer equality of *Value) is preserved.
func (v *Value) setDescriptor(d Descriptor) { v.desc = d }

// Descriptor is the behavior table every value's header points to. All
// polymorphic operations dispatch through it; every descriptor implements
// every method of this interface.
type Descriptor interface {
	Family() Family
	Mutability() Mutability
	Name() string

	// Hash returns a stable hash, fixed the moment the value becomes
	// immutable.
	Hash(v *Value) uint64

	// Equals implements the visitor half of double-dispatch equality:
	// it is called as other.Descriptor().EqualsWith(other, v) from the
	// generic Equals entry point below, so each descriptor only needs to
	// recognize its own family and known cross-representation peers.
	EqualsWith(self *Value, peer *Value) bool

	// String renders a value for diagnostics.
	String(v *Value) string

	// withMutability returns the sibling descriptor for the same
	// representation at the requested mutability, or nil if the
	// transition is not applicable for this descriptor.
	withMutability(m Mutability) Descriptor
}

// Representational is implemented by descriptors that participate in
// representation switching (spec §4.1): a value may discover mid-flight
// that another representation of the same content is better and adopt it
// via an indirection.
type Representational interface {
	Descriptor
	// IsBetterRepresentationThan reports whether self's representation of
	// v should become canonical over peer's representation of other.
	IsBetterRepresentationThan(v *Value, other *Value) bool
}

// Equals is the public entry point for value equality: double dispatch to
// the peer's descriptor, which knows how to compare its own family
// against self. Representation transparency is enforced by following
// indirections on both sides first.
func Equals(a, b *Value) bool {
	a, b = Traversed(a), Traversed(b)
	if a == b {
		return true
	}
	return b.desc.EqualsWith(b, a)
}

// Hash returns a's stable hash, traversing indirections first.
func Hash(a *Value) uint64 {
	a = Traversed(a)
	return a.desc.Hash(a)
}

// Traversed follows indirection descriptors to the canonical
// representative. It is idempotent and safe to call on any value.
func Traversed(v *Value) *Value {
	for v.desc.Family() == FamilyIndirection {
		v = v.objs[0]
	}
	return v
}

// MakeImmutable transitions v (and transitively everything it refers to)
// from mutable to immutable. It is a no-op once already immutable or
// shared. Calling it on a value observed only by one fiber makes it
// immutable without making it shared.
func MakeImmutable(v *Value) {
	v = Traversed(v)
	if v.desc.Mutability() != Mutable {
		return
	}
	if next := v.desc.withMutability(Immutable); next != nil {
		v.setDescriptor(next)
	}
	for _, o := range v.objs {
		MakeImmutable(o)
	}
}

// MakeShared transitions v to the shared state, required before it is
// visible to more than one fiber. Like MakeImmutable this is one-way and
// transitive.
func MakeShared(v *Value) {
	v = Traversed(v)
	if v.desc.Mutability() == Shared {
		return
	}
	if next := v.desc.withMutability(Shared); next != nil {
		v.setDescriptor(next)
	}
	for _, o := range v.objs {
		MakeShared(o)
	}
}

// RequireMutable panics with a descriptive message if v is not mutable —
// callers that need to update a record in place must check this first;
// attempting to mutate an immutable or shared value is a programming
// error, not a recoverable runtime failure.
func RequireMutable(v *Value) {
	v = Traversed(v)
	if v.desc.Mutability() != Mutable {
		panic(fmt.Sprintf("attempt to mutate %s value of descriptor %q", v.desc.Mutability(), v.desc.Name()))
	}
}

// Install replaces a's descriptor with an indirection pointing at b, the
// chosen canonical representative, once b has won representation
// selection. a keeps its identity; every future operation on a traverses
// to b.
func Install(a, b *Value) {
	a.objs = []*Value{b}
	a.ints = nil
	a.setDescriptor(indirectionDescriptor{})
}

// ResolveBetterRepresentation compares two representations of equal
// content and, if one is better, installs an indirection from the worse
// value to the better one. It returns the canonical survivor.
func ResolveBetterRepresentation(a, b *Value) *Value {
	ra, aok := a.desc.(Representational)
	rb, bok := b.desc.(Representational)
	switch {
	case aok && ra.IsBetterRepresentationThan(a, b):
		Install(b, a)
		return a
	case bok && rb.IsBetterRepresentationThan(b, a):
		Install(a, b)
		return b
	default:
		return a
	}
}

type indirectionDescriptor struct{}

func (indirectionDescriptor) Family() Family          { return FamilyIndirection }
func (indirectionDescriptor) Mutability() Mutability  { return Shared }
func (indirectionDescriptor) Name() string             { return "indirection" }
func (indirectionDescriptor) Hash(v *Value) uint64     { return Hash(Traversed(v)) }
func (indirectionDescriptor) String(v *Value) string   { return Traversed(v).desc.String(Traversed(v)) }
func (indirectionDescriptor) withMutability(Mutability) Descriptor { return nil }
func (indirectionDescriptor) EqualsWith(self, peer *Value) bool {
	return Equals(Traversed(self), peer)
}
