package primitive

import "testing"

func TestRegisterAndInvoke(t *testing.T) {
	r := NewRegistry()
	addNum, subNum, eqNum := RegisterArithmetic(r)

	res := r.Invoke(addNum, []any{int64(2), int64(3)})
	if res.Kind != ResultSuccess || res.Value.(int64) != 5 {
		t.Fatalf("expected 5, got %+v", res)
	}

	res = r.Invoke(subNum, []any{int64(10), int64(4)})
	if res.Kind != ResultSuccess || res.Value.(int64) != 6 {
		t.Fatalf("expected 6, got %+v", res)
	}

	res = r.Invoke(eqNum, []any{int64(5), int64(5)})
	if res.Kind != ResultSuccess || res.Value.(bool) != true {
		t.Fatalf("expected true, got %+v", res)
	}
}

func TestInvokeArityMismatch(t *testing.T) {
	r := NewRegistry()
	addNum, _, _ := RegisterArithmetic(r)

	res := r.Invoke(addNum, []any{int64(1)})
	if res.Kind != ResultFailure {
		t.Fatalf("expected a failure result for wrong arity, got %+v", res)
	}
}

func TestLookupUnknownPrimitive(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Lookup(999); err == nil {
		t.Fatalf("expected an error for an unregistered primitive number")
	}
}

func TestFlagBitmask(t *testing.T) {
	f := CanFold | Invokes
	if !f.Has(CanFold) || !f.Has(Invokes) {
		t.Fatalf("expected both flags set")
	}
	if f.Has(HasSideEffect) {
		t.Fatalf("did not expect HasSideEffect set")
	}
}
