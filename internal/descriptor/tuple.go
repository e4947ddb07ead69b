package descriptor

import "strings"

// TupleLike is implemented by every tuple representation so that equality
// and other generic tuple operations can be written once, in terms of
// length and element access, instead of once per concrete representation.
// This is the descriptor-polymorphism strategy of spec §9: a closed set
// of representations, a shared contract, table-driven dispatch.
type TupleLike interface {
	Descriptor
	Len(v *Value) int
	At(v *Value, oneBased int) *Value // 1-based, matching spec's frame-slot convention
}

// byteTupleDescriptor stores elements as bytes in the integer slots: the
// most compact representation for a tuple of small integers.
type byteTupleDescriptor struct{ mut Mutability }

// objectTupleDescriptor stores elements as generic object-slot values:
// the fallback representation for a tuple holding arbitrary content.
type objectTupleDescriptor struct{ mut Mutability }

// spliceTupleDescriptor is a rope: a reference to a base tuple plus
// [start, end) bounds, avoiding a copy when slicing a large tuple.
type spliceTupleDescriptor struct{ mut Mutability }

var (
	mutableByteTuple   Descriptor = byteTupleDescriptor{Mutable}
	immutableByteTuple Descriptor = byteTupleDescriptor{Immutable}
	sharedByteTuple     Descriptor = byteTupleDescriptor{Shared}

	mutableObjectTuple   Descriptor = objectTupleDescriptor{Mutable}
	immutableObjectTuple Descriptor = objectTupleDescriptor{Immutable}
	sharedObjectTuple    Descriptor = objectTupleDescriptor{Shared}

	mutableSpliceTuple   Descriptor = spliceTupleDescriptor{Mutable}
	immutableSpliceTuple Descriptor = spliceTupleDescriptor{Immutable}
	sharedSpliceTuple    Descriptor = spliceTupleDescriptor{Shared}
)

// NewByteTuple constructs a mutable byte-tuple from small integer content.
// Every element must fit in a byte; callers with larger content should use
// NewObjectTuple.
func NewByteTuple(bytes []int64) *Value {
	ints := make([]int64, len(bytes))
	copy(ints, bytes)
	return NewValue(mutableByteTuple, ints, nil)
}

// NewObjectTuple constructs a mutable object-tuple from arbitrary element
// values.
func NewObjectTuple(elements []*Value) *Value {
	objs := make([]*Value, len(elements))
	copy(objs, elements)
	return NewValue(mutableObjectTuple, nil, objs)
}

// NewSpliceTuple constructs a view over base[start:end) (1-based,
// inclusive start, exclusive end) without copying base's elements.
func NewSpliceTuple(base *Value, start, end int) *Value {
	return NewValue(mutableSpliceTuple, []int64{int64(start), int64(end)}, []*Value{base})
}

// NewObjectTuplePlaceholder allocates a mutable object-tuple sized to n
// elements, every slot initially nil. A deserializer that must register a
// tuple's final identity before populating its own self-referential
// slots (breaking a cycle in the serialized stream) builds it this way,
// then fills each slot with PatchObjectTupleSlot.
func NewObjectTuplePlaceholder(n int) *Value {
	return NewValue(mutableObjectTuple, nil, make([]*Value, n))
}

// PatchObjectTupleSlot fills slot i (1-based) of a placeholder built by
// NewObjectTuplePlaceholder. This is a decode-time-only escape hatch
// around the otherwise build-once-then-immutable object slots; nothing
// outside a deserializer should call it.
func PatchObjectTupleSlot(v *Value, i int, val *Value) {
	v.objs[i-1] = val
}

func (d byteTupleDescriptor) Family() Family         { return FamilyTuple }
func (d byteTupleDescriptor) Mutability() Mutability { return d.mut }
func (d byteTupleDescriptor) Name() string           { return "byte-tuple" }
func (d byteTupleDescriptor) Len(v *Value) int       { return len(v.ints) }
func (d byteTupleDescriptor) At(v *Value, i int) *Value {
	return NewInteger(v.ints[i-1])
}
func (d byteTupleDescriptor) Hash(v *Value) uint64 { return tupleHash(d, v) }
func (d byteTupleDescriptor) String(v *Value) string {
	return tupleString(d, v)
}
func (d byteTupleDescriptor) withMutability(m Mutability) Descriptor {
	switch m {
	case Immutable:
		return immutableByteTuple
	case Shared:
		return sharedByteTuple
	default:
		return mutableByteTuple
	}
}
func (d byteTupleDescriptor) EqualsWith(self, peer *Value) bool { return tupleEquals(d, self, peer) }
func (d byteTupleDescriptor) IsBetterRepresentationThan(v, other *Value) bool {
	// A byte-tuple is strictly more compact than any other representation
	// of the same content: one int64 slot per element, no headers.
	return true
}

func (d objectTupleDescriptor) Family() Family         { return FamilyTuple }
func (d objectTupleDescriptor) Mutability() Mutability { return d.mut }
func (d objectTupleDescriptor) Name() string           { return "object-tuple" }
func (d objectTupleDescriptor) Len(v *Value) int       { return len(v.objs) }
func (d objectTupleDescriptor) At(v *Value, i int) *Value {
	return v.objs[i-1]
}
func (d objectTupleDescriptor) Hash(v *Value) uint64   { return tupleHash(d, v) }
func (d objectTupleDescriptor) String(v *Value) string { return tupleString(d, v) }
func (d objectTupleDescriptor) withMutability(m Mutability) Descriptor {
	switch m {
	case Immutable:
		return immutableObjectTuple
	case Shared:
		return sharedObjectTuple
	default:
		return mutableObjectTuple
	}
}
func (d objectTupleDescriptor) EqualsWith(self, peer *Value) bool { return tupleEquals(d, self, peer) }
func (d objectTupleDescriptor) IsBetterRepresentationThan(v, other *Value) bool {
	// Only better than a splice-tuple view; a byte-tuple representation of
	// the same content always wins (checked by allByte below).
	if other.desc.Family() != FamilyTuple {
		return false
	}
	if _, splice := other.desc.(spliceTupleDescriptor); splice {
		return true
	}
	return allByte(v) == false && isSplice(other)
}

func (d spliceTupleDescriptor) Family() Family         { return FamilyTuple }
func (d spliceTupleDescriptor) Mutability() Mutability { return d.mut }
func (d spliceTupleDescriptor) Name() string           { return "splice-tuple" }
func (d spliceTupleDescriptor) Len(v *Value) int {
	return int(v.ints[1] - v.ints[0])
}
func (d spliceTupleDescriptor) At(v *Value, i int) *Value {
	base := v.objs[0]
	start := int(v.ints[0])
	baseTuple := base.desc.(TupleLike)
	return baseTuple.At(base, start+i-1)
}
func (d spliceTupleDescriptor) Hash(v *Value) uint64   { return tupleHash(d, v) }
func (d spliceTupleDescriptor) String(v *Value) string { return tupleString(d, v) }
func (d spliceTupleDescriptor) withMutability(m Mutability) Descriptor {
	switch m {
	case Immutable:
		return immutableSpliceTuple
	case Shared:
		return sharedSpliceTuple
	default:
		return mutableSpliceTuple
	}
}
func (d spliceTupleDescriptor) EqualsWith(self, peer *Value) bool { return tupleEquals(d, self, peer) }
func (d spliceTupleDescriptor) IsBetterRepresentationThan(v, other *Value) bool {
	// A splice-tuple is never a better representation; materializing a
	// concrete tuple is always preferred once content is compared.
	return false
}

func isSplice(v *Value) bool {
	_, ok := v.desc.(spliceTupleDescriptor)
	return ok
}

func allByte(v *Value) bool {
	tl := v.desc.(TupleLike)
	for i := 1; i <= tl.Len(v); i++ {
		e := Traversed(tl.At(v, i))
		if e.desc.Family() != FamilyInteger {
			return false
		}
		n := e.ints[0]
		if n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// tupleEquals implements the representation-transparent equality rule of
// spec §4.1/§8 property 2: any two tuple representations with the same
// logical content compare equal, and the winner of ResolveBetterRepresentation
// becomes canonical.
func tupleEquals(self Descriptor, a, b *Value) bool {
	b = Traversed(b)
	if b.desc.Family() != FamilyTuple {
		return false
	}
	at := a.desc.(TupleLike)
	bt := b.desc.(TupleLike)
	if at.Len(a) != bt.Len(b) {
		return false
	}
	for i := 1; i <= at.Len(a); i++ {
		if !Equals(at.At(a, i), bt.At(b, i)) {
			return false
		}
	}
	ResolveBetterRepresentation(a, b)
	return true
}

func tupleHash(self Descriptor, v *Value) uint64 {
	tl := self.(TupleLike)
	var h uint64 = 14695981039346656037 // FNV offset basis
	for i := 1; i <= tl.Len(v); i++ {
		h ^= Hash(tl.At(v, i))
		h *= 1099511628211
	}
	return h
}

func tupleString(self Descriptor, v *Value) string {
	tl := self.(TupleLike)
	var b strings.Builder
	b.WriteByte('<')
	for i := 1; i <= tl.Len(v); i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		e := Traversed(tl.At(v, i))
		b.WriteString(e.desc.String(e))
	}
	b.WriteByte('>')
	return b.String()
}
