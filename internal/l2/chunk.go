package l2

import (
	"github.com/valence-lang/valence/internal/code"
	"github.com/valence-lang/valence/internal/continuation"
	"github.com/valence-lang/valence/internal/descriptor"
	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/dispatch"
	"github.com/valence-lang/valence/internal/typelattice"
)

// Op enumerates the register-machine instruction set of spec §4.5. Each
// constant-folded or inlined primitive still compiles down to ordinary
// instructions here; CanFold/CanInline (component J) only affect whether
// the compiler emits them at all.
type Op int

const (
	Move Op = iota
	MoveConstant
	CreateFunction
	CreateTuple
	CreateMap
	CreateObject
	GetVar
	SetVar
	LookupByValues
	Invoke
	InvokeConstantFunction
	Jump
	JumpIfFalse
	Add
	Sub
	Box
	Unbox
	EnterL2Chunk
	OffRamp
	Ret
	Unreachable
)

// Instruction is one register-machine op, fields interpreted per Op.
type Instruction struct {
	Op   Op
	A, B, C int
	Const any
}

// Host supplies cross-component services a chunk needs while running,
// mirroring l1.Host so both steppers can be driven from the same runtime
// wiring.
type Host interface {
	TypeOf(v any) typelattice.Type
	Lookup(atom *dispatch.Atom) (*dispatch.Method, error)
	NewContinuation(caller *continuation.Continuation, fn *code.Function, args []any) *continuation.Continuation
}

// Chunk is an installed optimized body for a function: a flat instruction
// list, a register file sizing hint, and the generation it was compiled
// against (no manifest is stored on the chunk) — invalidated in bulk when that
// generation advances (spec §8 property 8, scenario E6).
type Chunk struct {
	Instructions []Instruction
	NumRegisters int
	EntryPC      int // the L1 pc this chunk begins executing from
	generation   int
	currentGen   *int // shared counter; chunk is valid while *currentGen == generation
}

// NewChunk builds a chunk tied to a shared generation counter. Bumping
// *gen invalidates every chunk built against the old value in one write,
// matching the teacher's global deopt-on-redefinition behavior
// (sentra internal/jit/jit.go's invalidation on method redefinition)
// generalized to spec §8's per-chunk off-ramp contract.
func NewChunk(instructions []Instruction, numRegisters, entryPC int, gen *int) *Chunk {
	return &Chunk{
		Instructions: instructions,
		NumRegisters: numRegisters,
		EntryPC:      entryPC,
		generation:   *gen,
		currentGen:   gen,
	}
}

func (c *Chunk) Valid() bool { return *c.currentGen == c.generation }

func (c *Chunk) EntryOffset(pc int) int {
	if pc == c.EntryPC {
		return 0
	}
	return -1
}

// Outcome classifies how a chunk run ended, per spec §4.5's edge taxonomy.
type Outcome int

const (
	Success Outcome = iota
	Failure
	OffRampTaken
	OnRampTaken
)

// Run executes c against frame starting at register-machine instruction
// index start, returning the caller-visible result, or an OffRampTaken
// outcome plus the reified continuation the L1 interpreter should resume
// from (spec §4.6's deoptimization path).
func Run(c *Chunk, frame *continuation.Continuation, host Host, start int) (Outcome, *continuation.Continuation, any, error) {
	if !c.Valid() {
		return OffRampTaken, frame, nil, nil
	}
	registers := make([]any, c.NumRegisters)
	// Seed registers from the frame's argument slots 1:1; a real compiler
	// would consult the manifest to know which semantic value landed in
	// which register, elided here since this chunk format carries no
	// manifest of its own at run time (it is attached at compile time and
	// consulted only by the optimizer, not the executor).
	for i := 1; i <= frame.NumSlots() && i-1 < len(registers); i++ {
		registers[i-1] = frame.Slot(i)
	}

	pc := start
	for pc < len(c.Instructions) {
		if !c.Valid() {
			return OffRampTaken, frame, nil, nil
		}
		instr := c.Instructions[pc]
		switch instr.Op {
		case Move:
			registers[instr.A] = registers[instr.B]
			pc++
		case MoveConstant:
			registers[instr.A] = instr.Const
			pc++
		case CreateTuple:
			n := instr.B
			elems := make([]*descriptor.Value, n)
			for i := 0; i < n; i++ {
				elems[i] = registers[instr.C+i].(*descriptor.Value)
			}
			registers[instr.A] = descriptor.NewObjectTuple(elems)
			pc++
		case Add:
			registers[instr.A] = addValues(registers[instr.B], registers[instr.C])
			pc++
		case Sub:
			registers[instr.A] = subValues(registers[instr.B], registers[instr.C])
			pc++
		case Box:
			registers[instr.A] = registers[instr.B]
			pc++
		case Unbox:
			registers[instr.A] = registers[instr.B]
			pc++
		case Jump:
			pc = instr.A
		case JumpIfFalse:
			if registers[instr.B] == false {
				pc = instr.A
			} else {
				pc++
			}
		case Invoke, InvokeConstantFunction:
			numArgs := instr.B
			atom, _ := instr.Const.(*dispatch.Atom)
			args := make([]any, numArgs)
			argTypes := make([]typelattice.Type, numArgs)
			for i := 0; i < numArgs; i++ {
				args[i] = registers[instr.C+i]
				argTypes[i] = host.TypeOf(args[i])
			}
			method, err := host.Lookup(atom)
			if err != nil {
				return Failure, nil, nil, err
			}
			def, err := method.LookupByValuesFromList(argTypes)
			if err != nil {
				return Failure, nil, nil, err
			}
			target, ok := def.Body.(*code.Function)
			if !ok {
				return Failure, nil, nil, diagnostic.Internal("method %s definition body is not invocable", atom)
			}
			callee := host.NewContinuation(frame, target, args)
			// A chunk-to-chunk call that must recurse through L1 is an
			// off-ramp by construction: hand the callee back to the outer
			// driving loop rather than re-entering package l1 from here.
			return OffRampTaken, callee, nil, nil
		case EnterL2Chunk:
			pc++ // no-op placeholder for a tiered re-entry marker
		case OffRamp:
			frame.SetPC(instr.A)
			frame.MarkReified()
			return OffRampTaken, frame, nil, nil
		case Ret:
			return Success, nil, registers[instr.A], nil
		case Unreachable:
			return Failure, nil, nil, diagnostic.Internal("reached UNREACHABLE_CODE instruction")
		default:
			return Failure, nil, nil, diagnostic.Internal("unknown l2 opcode %d", instr.Op)
		}
	}
	return Failure, nil, nil, diagnostic.Internal("l2 chunk ran off the end without RET")
}

func addValues(a, b any) any {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			return av + bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av + bv
		}
	}
	return nil
}

func subValues(a, b any) any {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			return av - bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av - bv
		}
	}
	return nil
}
