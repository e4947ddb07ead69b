// Package primitive implements the numbered-primitive registry of spec
// §4.7/§8: built-in operations invoked by number rather than by dispatch,
// each carrying compiler-relevant flags and a structured result instead
// of a bare value. Grounded on the teacher's registerGlobal/NativeFnObj
// pattern (sentra internal/vmregister/stdlib.go's RegisterStdlib), but
// keyed by a stable integer rather than a name lookup — names are a
// parser-facing concern (component G's atom table), primitives are an
// L1/L2-facing concern that must never shift index under a new build.
package primitive

import (
	"sync"

	"github.com/valence-lang/valence/internal/diagnostic"
)

// Flag is a bitmask of compiler-relevant facts about a primitive, per
// spec §4.7.
type Flag uint8

const (
	CanFold Flag = 1 << iota
	CanInline
	CannotFail
	Invokes
	SwitchesContinuation
	HasSideEffect
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// ResultKind classifies how a primitive's invocation concluded.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultFailure
	ResultReadyToInvoke
	ResultContinuationChanged
	ResultFiberSuspended
)

// Result is what a primitive's Func returns: most primitives produce
// ResultSuccess with a Value, but a primitive flagged Invokes may instead
// request the caller invoke another function (ResultReadyToInvoke,
// filling ToInvoke/Args), and one flagged SwitchesContinuation may
// install a different continuation to resume from entirely.
type Result struct {
	Kind               ResultKind
	Value              any
	Failure            *diagnostic.Diagnostic
	ToInvoke           any // a *code.Function-shaped value, left untyped to avoid an import cycle
	Args               []any
	ReplacementCont    any // a *continuation.Continuation, left untyped for the same reason
}

// Func is a primitive's implementation.
type Func func(args []any) Result

// Primitive is one registry entry: a stable number, its flags, arity, and
// implementation.
type Primitive struct {
	Number int
	Name   string // for diagnostics/disassembly only, never used to look it up
	Arity  int
	Flags  Flag
	Fn     Func
}

// Registry is the numbered primitive table, safe for concurrent lookup
// once built (building happens once at startup before any fiber runs, so
// the mutex only guards against accidental late registration).
type Registry struct {
	mu    sync.RWMutex
	byNum map[int]*Primitive
	next  int
}

func NewRegistry() *Registry {
	return &Registry{byNum: map[int]*Primitive{}}
}

// Register assigns the next free number to p and adds it, returning the
// assigned number. Numbers are assigned in registration order so a given
// build's primitive numbering is stable across runs as long as
// registration order is (component K relies on this for the serialized
// fingerprint of primitive-invoking code).
func (r *Registry) Register(name string, arity int, flags Flag, fn Func) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	n := r.next
	r.byNum[n] = &Primitive{Number: n, Name: name, Arity: arity, Flags: flags, Fn: fn}
	return n
}

// Lookup returns the primitive registered under n.
func (r *Registry) Lookup(n int) (*Primitive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byNum[n]
	if !ok {
		return nil, diagnostic.Internal("no primitive numbered %d", n)
	}
	return p, nil
}

// Invoke calls the primitive numbered n with args, checking arity first.
func (r *Registry) Invoke(n int, args []any) Result {
	p, err := r.Lookup(n)
	if err != nil {
		return Result{Kind: ResultFailure, Failure: diagnostic.Runtime(diagnostic.CodeNoMethod, "%v", err)}
	}
	if len(args) != p.Arity {
		return Result{Kind: ResultFailure, Failure: diagnostic.Runtime(diagnostic.CodeIncorrectNumberOfArguments,
			"primitive %s expects %d arguments, got %d", p.Name, p.Arity, len(args))}
	}
	return p.Fn(args)
}
