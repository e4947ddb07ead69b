// Package continuation implements the reified call frame of spec §3/§4.6:
// a first-class value referencing its caller, its function, a one-based
// program counter, a downward-growing stack pointer inside a contiguous
// frame-slot array, an optional installed L2 chunk and offset, and a
// skip-return flag. Grounded on the teacher's EnhancedCallFrame
// (sentra internal/vm/vm.go) and its fiber-carrying call stack, heap
// allocated from the start per spec §9's design note rather than kept on
// a native stack.
package continuation

import (
	"github.com/valence-lang/valence/internal/code"
	"github.com/valence-lang/valence/internal/diagnostic"
)

// Chunk is the subset of an installed L2 chunk's contract the
// continuation engine needs, kept as an interface here so this package
// does not import package l2 (which itself materializes into
// Continuation values — the dependency would cycle otherwise).
type Chunk interface {
	Valid() bool
	EntryOffset(pc int) int
}

// State is a continuation's observable lifecycle state, per spec §4.6.
type State int

const (
	MutableActive State = iota
	MutableReified
	Immutable
	SharedState
)

func (s State) String() string {
	switch s {
	case MutableActive:
		return "mutable-active"
	case MutableReified:
		return "mutable-reified"
	case Immutable:
		return "immutable"
	case SharedState:
		return "shared"
	default:
		return "state(?)"
	}
}

// Continuation is a reified call frame.
type Continuation struct {
	caller        *Continuation // nil for the fiber's root
	function      *code.Function
	pc            int // one-based
	stackp        int // grows downward inside slots
	chunk         Chunk
	chunkOffset   int
	skipReturn    bool
	state         State

	slots []any // 1..k: args, [failure var], locals, stack
}

// New constructs a fresh continuation sized to fn's frame layout, with pc
// at 1, stackp one past the last slot, and args copied into slots 1..numArgs
// — the "Call" operation of spec §4.6.
func New(caller *Continuation, fn *code.Function, args []any, chunk Chunk, chunkOffset int) *Continuation {
	layout := fn.Code.NumArgsAndLocalsAndStack(defaultStackEstimate)
	slots := make([]any, layout)
	copy(slots, args)
	return &Continuation{
		caller:      caller,
		function:    fn,
		pc:          1,
		stackp:      len(slots) + 1, // one past the last slot
		chunk:       chunk,
		chunkOffset: chunkOffset,
		state:       MutableActive,
		slots:       slots,
	}
}

const defaultStackEstimate = 16

func (c *Continuation) Caller() *Continuation   { return c.caller }
func (c *Continuation) Function() *code.Function { return c.function }
func (c *Continuation) PC() int                 { return c.pc }
func (c *Continuation) SetPC(pc int)            { c.pc = pc }
func (c *Continuation) StackPointer() int       { return c.stackp }
func (c *Continuation) Chunk() Chunk            { return c.chunk }
func (c *Continuation) ChunkOffset() int        { return c.chunkOffset }
func (c *Continuation) State() State            { return c.state }
func (c *Continuation) SkipReturn() bool        { return c.skipReturn }
func (c *Continuation) SetSkipReturn(b bool)    { c.skipReturn = b }
func (c *Continuation) NumSlots() int           { return len(c.slots) }

func (c *Continuation) Slot(i int) any { return c.slots[i-1] }
func (c *Continuation) SetSlot(i int, v any) {
	c.slots[i-1] = v
}

// Push decrements the stack pointer and stores v there — "grows downward"
// per spec §3.
func (c *Continuation) Push(v any) {
	c.stackp--
	c.slots[c.stackp-1] = v
}

// Pop reads and clears the top-of-stack slot, incrementing the pointer.
func (c *Continuation) Pop() any {
	v := c.slots[c.stackp-1]
	c.slots[c.stackp-1] = nil
	c.stackp++
	return v
}

// EnsureMutable returns c if it is already mutable, or a shallow copy
// otherwise — "a continuation is immutable once observed from L1;
// ensureMutable copies it on write" (spec §3).
func (c *Continuation) EnsureMutable() *Continuation {
	if c.state == MutableActive || c.state == MutableReified {
		return c
	}
	cp := *c
	cp.slots = append([]any(nil), c.slots...)
	cp.state = MutableActive
	return &cp
}

// MarkObserved transitions a mutable-active continuation to immutable,
// the state an L1-visible primitive observes it in.
func (c *Continuation) MarkObserved() {
	if c.state == MutableActive || c.state == MutableReified {
		c.state = Immutable
	}
}

// MarkShared transitions to the shared state — captured by another fiber
// or serialized.
func (c *Continuation) MarkShared() {
	c.state = SharedState
}

// MarkReified transitions a running continuation that just materialized
// its register state back into slot form.
func (c *Continuation) MarkReified() {
	if c.state == MutableActive {
		c.state = MutableReified
	}
}

// Restart resets c to pc=1 with its original arguments still in slots
// 1..numArgs, clearing the stack and locals — spec §4.6.
func (c *Continuation) Restart() *Continuation {
	c = c.EnsureMutable()
	numArgs := c.function.Code.NumArgs
	for i := numArgs + 1; i <= len(c.slots); i++ {
		c.slots[i-1] = nil
	}
	c.pc = 1
	c.stackp = len(c.slots) + 1
	c.chunkOffset = 0
	return c
}

// Resume installs a previously captured continuation as the current
// frame; since a captured continuation is immutable, the first mutation
// copies it — callers should call EnsureMutable before mutating further.
func Resume(captured *Continuation) *Continuation {
	return captured
}

// ReturnInto pushes value onto caller's stack after an optional type
// check (elided when returningSkipReturn is set — the SkipReturn flag
// belongs to the continuation that is returning, established by an
// inline-assignment variant that must yield a value regardless of its
// declared result type, not to the caller it returns into), and returns
// the now-mutable caller ready to resume at its pc — spec §4.6's
// "Return" operation. A nil caller means the fiber's root was returned
// past, which terminates the fiber with value (signalled by the nil
// return here; the fiber scheduler interprets it).
func ReturnInto(caller *Continuation, returningSkipReturn bool, value any, checkType func(any) error) (*Continuation, error) {
	if caller == nil {
		return nil, nil // fiber termination; scheduler binds the final value
	}
	if !returningSkipReturn && checkType != nil {
		if err := checkType(value); err != nil {
			return nil, diagnostic.Internal("return type check failed: %v", err)
		}
	}
	caller = caller.EnsureMutable()
	caller.Push(value)
	return caller, nil
}
