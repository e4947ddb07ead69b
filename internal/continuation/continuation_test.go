package continuation

import (
	"testing"

	"github.com/valence-lang/valence/internal/code"
)

func simpleFunction(numArgs int) *code.Function {
	c := code.New(numArgs, 0)
	c.WriteNybble(0, code.DebugEntry{})
	return code.NewFunction(c, nil, nil)
}

func TestNewSeedsArgsIntoSlots(t *testing.T) {
	fn := simpleFunction(2)
	c := New(nil, fn, []any{int64(1), int64(2)}, nil, 0)
	if c.Slot(1) != int64(1) || c.Slot(2) != int64(2) {
		t.Fatalf("expected args in slots 1 and 2, got %v %v", c.Slot(1), c.Slot(2))
	}
	if c.PC() != 1 {
		t.Fatalf("expected pc 1, got %d", c.PC())
	}
	if c.State() != MutableActive {
		t.Fatalf("expected a fresh continuation to start mutable-active, got %v", c.State())
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	fn := simpleFunction(0)
	c := New(nil, fn, nil, nil, 0)
	c.Push(int64(7))
	c.Push(int64(9))
	if got := c.Pop(); got != int64(9) {
		t.Fatalf("expected 9, got %v", got)
	}
	if got := c.Pop(); got != int64(7) {
		t.Fatalf("expected 7, got %v", got)
	}
}

// TestCaptureThenMutateDoesNotAffectOriginal covers scenario E3: a
// continuation observed (captured) by a first-class reference becomes
// immutable, so resuming it and writing to a slot must copy rather than
// mutate the captured state out from under any other holder of the same
// reference.
func TestCaptureThenMutateDoesNotAffectOriginal(t *testing.T) {
	fn := simpleFunction(1)
	original := New(nil, fn, []any{int64(10)}, nil, 0)
	original.MarkObserved()
	if original.State() != Immutable {
		t.Fatalf("expected observed continuation to be immutable, got %v", original.State())
	}

	resumed := Resume(original)
	mutable := resumed.EnsureMutable()
	mutable.SetSlot(1, int64(99))

	if original.Slot(1) != int64(10) {
		t.Fatalf("expected capture to be unaffected by the resumed copy's mutation, got %v", original.Slot(1))
	}
	if mutable.Slot(1) != int64(99) {
		t.Fatalf("expected the resumed copy to carry the new value, got %v", mutable.Slot(1))
	}
}

func TestRestartClearsLocalsKeepsArgs(t *testing.T) {
	fn := simpleFunction(1)
	c := New(nil, fn, []any{int64(5)}, nil, 0)
	c.Push(int64(123)) // simulate some stack usage before restart
	c.SetPC(42)

	restarted := c.Restart()
	if restarted.PC() != 1 {
		t.Fatalf("expected restart to reset pc to 1, got %d", restarted.PC())
	}
	if restarted.Slot(1) != int64(5) {
		t.Fatalf("expected restart to preserve the original argument, got %v", restarted.Slot(1))
	}
}

func TestReturnIntoNilCallerSignalsFiberTermination(t *testing.T) {
	next, err := ReturnInto(nil, false, int64(1), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatalf("expected a nil caller to signal fiber termination, got %v", next)
	}
}

func TestReturnIntoPushesValueAndMakesCallerMutable(t *testing.T) {
	callerFn := simpleFunction(0)
	caller := New(nil, callerFn, nil, nil, 0)
	caller.MarkObserved()

	resumed, err := ReturnInto(caller, false, int64(55), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resumed.State() != MutableActive {
		t.Fatalf("expected the resumed caller to be mutable, got %v", resumed.State())
	}
	if got := resumed.Pop(); got != int64(55) {
		t.Fatalf("expected the returned value on top of the caller's stack, got %v", got)
	}
}

// TestReturnIntoSkipsCheckBasedOnTheReturningContinuationNotTheCaller
// covers the distinction spec §4.4/§4.6 draw: the skip-return flag that
// elides the result-type check belongs to the continuation that is
// returning (established by an inline-assignment variant that must
// yield a value), never to the caller it returns into.
func TestReturnIntoSkipsCheckBasedOnTheReturningContinuationNotTheCaller(t *testing.T) {
	callerFn := simpleFunction(0)
	caller := New(nil, callerFn, nil, nil, 0)
	caller.MarkObserved()

	alwaysFails := func(any) error { return errCheckFailed }

	if _, err := ReturnInto(caller, true, int64(1), alwaysFails); err != nil {
		t.Fatalf("expected the check to be skipped when the returning continuation requests it, got %v", err)
	}
	if _, err := ReturnInto(caller, false, int64(1), alwaysFails); err == nil {
		t.Fatalf("expected the check to run when the returning continuation does not request a skip")
	}
}

type checkFailedError struct{}

func (checkFailedError) Error() string { return "check failed" }

var errCheckFailed = checkFailedError{}
