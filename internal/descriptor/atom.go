package descriptor

// atomDescriptor wraps an interned name so an atom can travel through
// tuples, maps, and the serializer like any other heap value. Identity
// here is carried by name, not by this wrapper's own pointer: two
// atomDescriptor values built from the same name compare Equal, but true
// process-wide atom identity (pointer identity of a *dispatch.Atom) is
// recovered by interning the name again on the reading side — this
// package stays independent of dispatch.AtomTable so it has no import
// cycle with the package that defines Atom.
type atomDescriptor struct{ mut Mutability }

var (
	mutableAtom   Descriptor = atomDescriptor{Mutable}
	immutableAtom Descriptor = atomDescriptor{Immutable}
	sharedAtom    Descriptor = atomDescriptor{Shared}
)

// NewAtomValue wraps name as a heap value. The name's bytes are stored in
// the integer slots the same way a byte-tuple stores its elements.
func NewAtomValue(name string) *Value {
	ints := make([]int64, len(name))
	for i := 0; i < len(name); i++ {
		ints[i] = int64(name[i])
	}
	return NewValue(mutableAtom, ints, nil)
}

// AtomName recovers the name an atom value was built from, traversing
// indirections first. It panics if v is not an atom value.
func AtomName(v *Value) string {
	v = Traversed(v)
	if v.desc.Family() != FamilyAtom {
		panic("AtomName on non-atom descriptor " + v.desc.Name())
	}
	b := make([]byte, len(v.ints))
	for i, c := range v.ints {
		b[i] = byte(c)
	}
	return string(b)
}

func (d atomDescriptor) Family() Family         { return FamilyAtom }
func (d atomDescriptor) Mutability() Mutability { return d.mut }
func (d atomDescriptor) Name() string           { return "atom" }

func (d atomDescriptor) Hash(v *Value) uint64 {
	var h uint64 = 14695981039346656037 // FNV offset basis, matching tupleHash's choice
	for _, c := range v.ints {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}

func (d atomDescriptor) String(v *Value) string { return "#" + AtomName(v) }

func (d atomDescriptor) withMutability(m Mutability) Descriptor {
	switch m {
	case Immutable:
		return immutableAtom
	case Shared:
		return sharedAtom
	default:
		return mutableAtom
	}
}

func (d atomDescriptor) EqualsWith(self, peer *Value) bool {
	peer = Traversed(peer)
	if peer.desc.Family() != FamilyAtom {
		return false
	}
	return AtomName(self) == AtomName(peer)
}
