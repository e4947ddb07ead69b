package fiber

import (
	"context"
	"testing"

	"github.com/valence-lang/valence/internal/code"
	"github.com/valence-lang/valence/internal/continuation"
)

type recordingStepper struct {
	order []uint64
}

func (s *recordingStepper) Step(ctx context.Context, c *continuation.Continuation) (any, *continuation.Continuation, bool, error) {
	return c.Slot(1), nil, false, nil
}

func newRootWithTag(tag int64) *continuation.Continuation {
	cc := code.New(1, 0)
	fn := code.NewFunction(cc, nil, nil)
	c := continuation.New(nil, fn, []any{tag}, nil, 0)
	return c
}

// TestSchedulerPrefersHigherPriority verifies a high-priority fiber
// spawned after a low-priority one still runs first, matching the
// teacher's dispatchTasks preference order generalized to spec §9's
// fairness requirement (a runnable fiber of the highest present priority
// always runs before a lower one).
func TestSchedulerPrefersHigherPriority(t *testing.T) {
	stepper := &recordingStepper{}
	sched := NewScheduler(stepper, 4)

	lowFiber := sched.Spawn(newRootWithTag(1), Low)
	highFiber := sched.Spawn(newRootWithTag(2), High)

	ctx := context.Background()
	ran, err := sched.RunOne(ctx)
	if err != nil || !ran {
		t.Fatalf("expected a fiber to run, err=%v", err)
	}

	highResult, err := highFiber.Result()
	if err != nil {
		t.Fatalf("unexpected error from high fiber: %v", err)
	}
	if highResult.(int64) != 2 {
		t.Fatalf("expected the high-priority fiber to run first, got tag %v", highResult)
	}

	if lowFiber.Status() != Runnable {
		t.Fatalf("expected low-priority fiber to remain runnable, got %v", lowFiber.Status())
	}

	ran, err = sched.RunOne(ctx)
	if err != nil || !ran {
		t.Fatalf("expected second fiber to run, err=%v", err)
	}
	lowResult, err := lowFiber.Result()
	if err != nil || lowResult.(int64) != 1 {
		t.Fatalf("expected low-priority fiber to run second with tag 1, got %v err=%v", lowResult, err)
	}
}

func TestDrainExhaustsAllFibers(t *testing.T) {
	sched := NewScheduler(&recordingStepper{}, 2)
	for i := int64(0); i < 5; i++ {
		sched.Spawn(newRootWithTag(i), Normal)
	}
	if err := sched.Drain(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ran, err := sched.RunOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Fatalf("expected no fibers left to run after Drain")
	}
}
