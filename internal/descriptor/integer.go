package descriptor

import "fmt"

// integerDescriptor represents a boxed integer. Small integers are the
// common case; spec's type lattice allows signed infinities, represented
// here by the sentinel magnitudes PositiveInfinity and NegativeInfinity
// below, since Go's int64 cannot itself represent unbounded magnitude (the numeric
// representation beyond "integers, signed infinities, reals" is explicitly
// out of scope per spec §1 non-goals).
type integerDescriptor struct {
	mut Mutability
}

var (
	mutableInteger   Descriptor = integerDescriptor{Mutable}
	immutableInteger Descriptor = integerDescriptor{Immutable}
	sharedInteger    Descriptor = integerDescriptor{Shared}
)

// PositiveInfinity and NegativeInfinity are sentinel magnitudes recognized
// by the type lattice's integer-range variant (component B).
const (
	PositiveInfinity int64 = 1<<63 - 1
	NegativeInfinity int64 = -(1 << 63) + 1
)

// NewInteger constructs a fresh mutable integer value.
func NewInteger(n int64) *Value {
	return NewValue(mutableInteger, []int64{n}, nil)
}

// IntegerValue extracts the int64 magnitude of v, traversing indirections
// first. It panics if v is not an integer; callers that aren't sure should
// check v.Descriptor().Family() == FamilyInteger.
func IntegerValue(v *Value) int64 {
	v = Traversed(v)
	if v.desc.Family() != FamilyInteger {
		panic(fmt.Sprintf("IntegerValue on non-integer descriptor %q", v.desc.Name()))
	}
	return v.ints[0]
}

func (d integerDescriptor) Family() Family         { return FamilyInteger }
func (d integerDescriptor) Mutability() Mutability { return d.mut }
func (d integerDescriptor) Name() string           { return "integer" }

func (d integerDescriptor) Hash(v *Value) uint64 {
	n := uint64(v.ints[0])
	// Fibonacci hashing, matching the cheap multiplicative hash the
	// teacher's register VM uses for small-int fast paths.
	return (n * 11400714819323198485) ^ (n >> 17)
}

func (d integerDescriptor) String(v *Value) string {
	switch v.ints[0] {
	case PositiveInfinity:
		return "+inf"
	case NegativeInfinity:
		return "-inf"
	default:
		return fmt.Sprintf("%d", v.ints[0])
	}
}

func (d integerDescriptor) withMutability(m Mutability) Descriptor {
	switch m {
	case Immutable:
		return immutableInteger
	case Shared:
		return sharedInteger
	default:
		return mutableInteger
	}
}

func (d integerDescriptor) EqualsWith(self, peer *Value) bool {
	peer = Traversed(peer)
	if peer.desc.Family() != FamilyInteger {
		return false
	}
	return self.ints[0] == peer.ints[0]
}
