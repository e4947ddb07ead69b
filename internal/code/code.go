// Package code implements Level-One compiled code objects and the
// functions built from them (spec §4.3), grounded on the teacher's
// bytecode.Chunk (constants pool, byte stream, per-instruction debug
// table) generalized to carry the argument/local/stack layout and
// primitive-failure variable type spec §4.3 requires.
package code

import (
	"sync"

	"github.com/valence-lang/valence/internal/typelattice"
)

// DebugEntry records the source location of one nybble in the stream,
// mirroring the teacher's bytecode.DebugInfo.
type DebugEntry struct {
	Line, Column int
	File         string
}

// CompiledCode is the nominal Level-One representation of spec §4.3: a
// nybble stream plus a literal pool plus the slot layout needed to size a
// continuation's frame.
type CompiledCode struct {
	NumArgs     int
	NumLocals   int
	PrimitiveNumber int // 0 = none
	FailureVariableType typelattice.Type // nil if PrimitiveNumber == 0

	Literals []any
	Nybbles  []byte
	Debug    []DebugEntry

	mu             sync.Mutex
	cachedLayout   *int // numArgsAndLocalsAndStack cache
	cachedFuncType typelattice.Type
}

// New constructs an empty, appendable compiled-code object.
func New(numArgs, numLocals int) *CompiledCode {
	return &CompiledCode{NumArgs: numArgs, NumLocals: numLocals}
}

// WriteNybble appends one nybblecode instruction byte (spec uses "nybble"
// loosely for the stream's instruction unit; we store it as a byte, as the
// teacher's Chunk does).
func (c *CompiledCode) WriteNybble(b byte, debug DebugEntry) {
	c.Nybbles = append(c.Nybbles, b)
	c.Debug = append(c.Debug, debug)
}

// AddLiteral interns a literal into the pool and returns its index.
func (c *CompiledCode) AddLiteral(v any) int {
	c.Literals = append(c.Literals, v)
	return len(c.Literals) - 1
}

// NumArgsAndLocalsAndStack returns the number of frame slots this code's
// continuations must be sized to: arguments, an optional
// primitive-failure variable, locals, and an estimate of stack depth.
// It is a stable, cached property per spec §4.3.
func (c *CompiledCode) NumArgsAndLocalsAndStack(estimatedStackDepth int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cachedLayout != nil {
		return *c.cachedLayout
	}
	failureSlot := 0
	if c.PrimitiveNumber != 0 {
		failureSlot = 1
	}
	total := c.NumArgs + failureSlot + c.NumLocals + estimatedStackDepth
	c.cachedLayout = &total
	return total
}

// FunctionType returns (and caches) the [args...]->any function type this
// code realizes. The result type is left as Any here; the caller (the
// method registering this code as a definition body) narrows it to the
// definition's declared signature.
func (c *CompiledCode) FunctionType(argTypes []typelattice.Type) typelattice.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cachedFuncType != nil {
		return c.cachedFuncType
	}
	c.cachedFuncType = typelattice.Function(argTypes, typelattice.Any)
	return c.cachedFuncType
}

// OuterVariable describes one slot a Function captures from its defining
// lexical scope.
type OuterVariable struct {
	Name string
	Type typelattice.Type
}

// Function pairs compiled code with the tuple of outer variables its
// closures captured, per spec §4.3.
type Function struct {
	Code    *CompiledCode
	Outers  []any // values captured from the defining scope; typed any to avoid an import cycle with package variable/continuation
	OuterSpecs []OuterVariable
}

// NewFunction builds a function value from code and its captured outers.
func NewFunction(c *CompiledCode, outers []any, specs []OuterVariable) *Function {
	return &Function{Code: c, Outers: outers, OuterSpecs: specs}
}
