package variable

import (
	"testing"

	"github.com/valence-lang/valence/internal/typelattice"
)

func intTypeOf(v any) typelattice.Type {
	if _, ok := v.(int64); ok {
		return integerType
	}
	return typelattice.Any
}

var integerType = typelattice.IntegerRange(typelattice.NegInf, true, typelattice.PosInf, true)

func TestSetThenGetRoundTrip(t *testing.T) {
	v := New(integerType, integerType, Unshared, intTypeOf)
	if err := v.Set(int64(7)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := v.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(int64) != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestGetWithoutValueReturnsError(t *testing.T) {
	v := New(integerType, integerType, Unshared, intTypeOf)
	if _, err := v.Get(); err == nil {
		t.Fatalf("expected an error reading an unassigned variable")
	}
}

func TestSetRejectsValueOutsideWriteType(t *testing.T) {
	v := New(integerType, integerType, Unshared, func(any) typelattice.Type { return typelattice.Any })
	if err := v.Set("not an integer"); err == nil {
		t.Fatalf("expected a type error setting a non-integer value")
	}
}

// TestSharedVariableWriteHappensBeforeObservedRead covers scenario E5:
// a shared variable written by one fiber must be fully visible, not
// partially, to another fiber that synchronizes on the write via an
// observer signal rather than polling.
func TestSharedVariableWriteHappensBeforeObservedRead(t *testing.T) {
	v := New(integerType, integerType, SharedVisibility, intTypeOf)
	written := make(chan struct{})
	v.Observe(func(_ *Variable, newValue any) {
		if newValue.(int64) != 42 {
			t.Errorf("observer saw unexpected value %v", newValue)
		}
		close(written)
	})

	go func() {
		if err := v.Set(int64(42)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()

	<-written
	got, err := v.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(int64) != 42 {
		t.Fatalf("expected the read after the observer signal to see the fully written value, got %v", got)
	}
}
