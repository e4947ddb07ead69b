package descriptor

import "testing"

func TestEqualsSymmetric(t *testing.T) {
	a := NewInteger(42)
	b := NewInteger(42)
	if !Equals(a, b) || !Equals(b, a) {
		t.Fatalf("expected 42 == 42 to be symmetric")
	}
	if Hash(a) != Hash(b) {
		t.Fatalf("equal values must hash equal")
	}
}

func TestEqualsAcrossTupleRepresentations(t *testing.T) {
	byteTuple := NewByteTuple([]int64{1, 2, 3})
	objTuple := NewObjectTuple([]*Value{NewInteger(1), NewInteger(2), NewInteger(3)})

	if !Equals(byteTuple, objTuple) {
		t.Fatalf("expected byte-tuple <1,2,3> to equal object-tuple <1,2,3>")
	}
	if !Equals(objTuple, byteTuple) {
		t.Fatalf("expected equality to be symmetric across representations")
	}
}

func TestRepresentationTransparency(t *testing.T) {
	byteTuple := NewByteTuple([]int64{1, 2, 3})
	objTuple := NewObjectTuple([]*Value{NewInteger(1), NewInteger(2), NewInteger(3)})

	if !Equals(objTuple, byteTuple) {
		t.Fatalf("expected equal content")
	}
	// objTuple should have been installed as an indirection to the
	// byte-tuple, since byte-tuples always win representation selection.
	if Traversed(objTuple) != byteTuple {
		t.Fatalf("expected object-tuple to become an indirection to the byte-tuple")
	}
}

func TestSpliceTupleReadsThroughBase(t *testing.T) {
	base := NewObjectTuple([]*Value{NewInteger(10), NewInteger(20), NewInteger(30), NewInteger(40)})
	view := NewSpliceTuple(base, 2, 4) // elements 2..3 -> 20, 30

	tl := view.Descriptor().(TupleLike)
	if tl.Len(view) != 2 {
		t.Fatalf("expected splice length 2, got %d", tl.Len(view))
	}
	if IntegerValue(tl.At(view, 1)) != 20 || IntegerValue(tl.At(view, 2)) != 30 {
		t.Fatalf("unexpected splice contents")
	}
}

func TestMakeImmutableThenMutatePanics(t *testing.T) {
	v := NewInteger(1)
	MakeImmutable(v)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic mutating an immutable value")
		}
	}()
	RequireMutable(v)
}
