package repository

import (
	"testing"

	"github.com/valence-lang/valence/internal/descriptor"
	"github.com/valence-lang/valence/internal/dispatch"
)

func TestSerializeIntegerRoundTrip(t *testing.T) {
	v := descriptor.NewInteger(-17)
	data := NewSerializer().Serialize(v)

	got, err := NewDeserializer(nil).Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !descriptor.Equals(v, got) {
		t.Fatalf("expected the round-tripped integer to equal the original")
	}
}

func TestSerializeTupleRoundTrip(t *testing.T) {
	v := descriptor.NewObjectTuple([]*descriptor.Value{
		descriptor.NewInteger(1),
		descriptor.NewObjectTuple([]*descriptor.Value{descriptor.NewInteger(2), descriptor.NewInteger(3)}),
	})
	data := NewSerializer().Serialize(v)

	got, err := NewDeserializer(nil).Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !descriptor.Equals(v, got) {
		t.Fatalf("expected the round-tripped nested tuple to equal the original")
	}
}

// TestSerializeAtomPreservesIdentityAcrossRoundTrip covers spec §8
// property 6's identity clause as far as a fresh table allows: an atom
// serialized from one AtomTable decodes through a brand-new AtomTable to
// an atom of the same name, and interning that name again in the reader
// table is stable (the same *dispatch.Atom each time).
func TestSerializeAtomPreservesIdentityAcrossRoundTrip(t *testing.T) {
	writerAtoms := dispatch.NewAtomTable()
	original := writerAtoms.Intern("north")
	v := descriptor.NewAtomValue(original.Name)

	data := NewSerializer().Serialize(v)

	readerAtoms := dispatch.NewAtomTable()
	decoded, err := NewDeserializer(readerAtoms).Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if descriptor.AtomName(decoded) != "north" {
		t.Fatalf("expected the decoded atom name to be %q, got %q", "north", descriptor.AtomName(decoded))
	}

	// Interning the same name a second time against the table that
	// already observed it through the decode must yield the identical
	// *dispatch.Atom, the "same-process atoms round-trip to identical
	// identity" requirement.
	again := readerAtoms.Intern("north")
	sameTableFirstIntern := readerAtoms.Intern("north")
	if again != sameTableFirstIntern {
		t.Fatalf("expected repeated interning of the same name to be stable")
	}
}

// TestSerializeSharedSubstructureUsesBackreference covers the "shared
// registry of previously serialized values" requirement directly: a
// value referenced twice from the same container must decode back to
// one shared object, not two independent copies.
func TestSerializeSharedSubstructureUsesBackreference(t *testing.T) {
	shared := descriptor.NewInteger(99)
	v := descriptor.NewObjectTuple([]*descriptor.Value{shared, shared})

	data := NewSerializer().Serialize(v)
	got, err := NewDeserializer(nil).Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	tl := got.Descriptor().(descriptor.TupleLike)
	first := tl.At(got, 1)
	second := tl.At(got, 2)
	if first != second {
		t.Fatalf("expected both slots to decode to the same shared object, got distinct values")
	}
}

// TestSerializeSelfReferentialTupleTerminates covers the cycle-breaking
// requirement: a tuple that refers to itself must serialize and
// deserialize in finite time, and the decoded tuple's self-reference
// must be pointer-identical to the tuple itself.
func TestSerializeSelfReferentialTupleTerminates(t *testing.T) {
	cyclic := descriptor.NewObjectTuplePlaceholder(2)
	descriptor.PatchObjectTupleSlot(cyclic, 1, descriptor.NewInteger(1))
	descriptor.PatchObjectTupleSlot(cyclic, 2, cyclic)

	data := NewSerializer().Serialize(cyclic)
	got, err := NewDeserializer(nil).Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	tl := got.Descriptor().(descriptor.TupleLike)
	if tl.At(got, 2) != got {
		t.Fatalf("expected the decoded tuple's second slot to be itself")
	}
}

func TestDeserializeRejectsTruncatedStream(t *testing.T) {
	if _, err := NewDeserializer(nil).Deserialize(nil); err == nil {
		t.Fatalf("expected an error deserializing an empty stream")
	}
}
