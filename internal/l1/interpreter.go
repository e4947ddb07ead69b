package l1

import (
	"github.com/valence-lang/valence/internal/code"
	"github.com/valence-lang/valence/internal/continuation"
	"github.com/valence-lang/valence/internal/descriptor"
	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/dispatch"
	"github.com/valence-lang/valence/internal/typelattice"
)

// Host supplies the cross-component services the interpreter needs but
// does not own: classifying a value's type (component B via descriptor),
// resolving a method atom to its Method (component G), and sizing/
// installing a freshly called continuation (component F). Kept as an
// interface so package l1 has no hard dependency on how the runtime wires
// those pieces together.
type Host interface {
	TypeOf(v any) typelattice.Type
	Lookup(atom *dispatch.Atom) (*dispatch.Method, error)
	NewContinuation(caller *continuation.Continuation, fn *code.Function, args []any) *continuation.Continuation
}

// decoder reads one byte (or byte+operand) at a time from a CompiledCode's
// nybble stream, advancing the continuation's pc as it goes.
type decoder struct {
	c *continuation.Continuation
}

func (d *decoder) readByte() byte {
	nybbles := d.c.Function().Code.Nybbles
	b := nybbles[d.c.PC()-1]
	d.c.SetPC(d.c.PC() + 1)
	return b
}

func (d *decoder) readOp() Opcode {
	return Opcode(d.readByte())
}

func (d *decoder) atEnd() bool {
	return d.c.PC()-1 >= len(d.c.Function().Code.Nybbles)
}

// Run interprets root and every continuation it transitively calls until
// control returns past the fiber's root continuation, yielding the
// terminating value. It is the outer driving loop of spec §4.4; package
// l2 supplies an alternative, faster stepper for functions carrying an
// installed chunk, with transparent fallback to this function.
func Run(root *continuation.Continuation, host Host) (any, error) {
	current := root
	for {
		result, next, value, err := step(current, host)
		if err != nil {
			return nil, err
		}
		switch result {
		case stepCalled, stepReturnedInward:
			current = next
		case stepTerminated:
			return value, nil
		}
	}
}

type stepOutcome int

const (
	stepCalled stepOutcome = iota
	stepReturnedInward
	stepTerminated
)

// step executes nybblecodes from c until a CALL transfers control to a
// new continuation, a RETURN transfers control back to the caller (or
// terminates the fiber), or the code runs off the end (implicit return of
// nil, used for bodies the compiler proves always execute an explicit
// RETURN — present here defensively).
func step(c *continuation.Continuation, host Host) (stepOutcome, *continuation.Continuation, any, error) {
	d := &decoder{c: c}
	fn := c.Function()
	literals := fn.Code.Literals

	for !d.atEnd() {
		switch d.readOp() {
		case PushLiteral:
			idx := int(d.readByte())
			c.Push(literals[idx])

		case PushLocal:
			slot := int(d.readByte())
			c.Push(c.Slot(slot))

		case PushOuter:
			idx := int(d.readByte())
			c.Push(fn.Outers[idx])

		case GetLocal:
			slot := int(d.readByte())
			c.Push(c.Slot(slot))

		case SetLocal:
			slot := int(d.readByte())
			c.SetSlot(slot, c.Pop())

		case Duplicate:
			top := c.Pop()
			c.Push(top)
			c.Push(top)

		case Pop:
			c.Pop()

		case MakeTuple:
			n := int(d.readByte())
			elems := make([]*descriptor.Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = c.Pop().(*descriptor.Value)
			}
			c.Push(descriptor.NewObjectTuple(elems))

		case MakeClosure:
			literalIdx := int(d.readByte())
			numOuters := int(d.readByte())
			captured := make([]any, numOuters)
			for i := numOuters - 1; i >= 0; i-- {
				captured[i] = c.Pop()
			}
			cc := literals[literalIdx].(*code.CompiledCode)
			c.Push(code.NewFunction(cc, captured, nil))

		case GetVariable:
			v := c.Pop().(*VariableValue)
			val, err := v.Cell.Get()
			if err != nil {
				return 0, nil, nil, err
			}
			c.Push(val)

		case SetVariable:
			val := c.Pop()
			v := c.Pop().(*VariableValue)
			if err := v.Cell.Set(val); err != nil {
				return 0, nil, nil, err
			}

		case Call:
			atomLiteralIdx := int(d.readByte())
			numArgs := int(d.readByte())
			atom := literals[atomLiteralIdx].(*dispatch.Atom)
			args := make([]any, numArgs)
			argTypes := make([]typelattice.Type, numArgs)
			for i := numArgs - 1; i >= 0; i-- {
				args[i] = c.Pop()
				argTypes[i] = host.TypeOf(args[i])
			}
			method, err := host.Lookup(atom)
			if err != nil {
				return 0, nil, nil, err
			}
			def, err := method.LookupByValuesFromList(argTypes)
			if err != nil {
				return 0, nil, nil, err
			}
			target, ok := def.Body.(*code.Function)
			if !ok {
				return 0, nil, nil, diagnostic.Internal("method %s definition body is not an invocable function", atom)
			}
			callee := host.NewContinuation(c, target, args)
			return stepCalled, callee, nil, nil

		case Return:
			value := c.Pop()
			caller := c.Caller()
			c.MarkObserved()
			if caller == nil {
				return stepTerminated, nil, value, nil
			}
			next, err := continuation.ReturnInto(caller, c.SkipReturn(), value, nil)
			if err != nil {
				return 0, nil, nil, err
			}
			return stepReturnedInward, next, nil, nil
		}
	}
	// Ran off the end without an explicit RETURN: treat as returning nil,
	// matching a function whose only path is a fallthrough.
	caller := c.Caller()
	if caller == nil {
		return stepTerminated, nil, nil, nil
	}
	next, err := continuation.ReturnInto(caller, c.SkipReturn(), nil, nil)
	if err != nil {
		return 0, nil, nil, err
	}
	return stepReturnedInward, next, nil, nil
}

// Cell is the shape GetVariable/SetVariable expect a popped first-class
// variable value to satisfy. It mirrors *variable.Variable's Get/Set
// without importing package variable directly, so l1 stays independent of
// how the runtime represents a variable as a heap value.
type Cell interface {
	Get() (any, error)
	Set(any) error
}

// VariableValue wraps a Cell so it can be pushed and popped on the
// operand stack like any other value.
type VariableValue struct {
	Cell Cell
}
