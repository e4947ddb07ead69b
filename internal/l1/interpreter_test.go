package l1

import (
	"testing"

	"github.com/valence-lang/valence/internal/code"
	"github.com/valence-lang/valence/internal/continuation"
	"github.com/valence-lang/valence/internal/dispatch"
	"github.com/valence-lang/valence/internal/typelattice"
)

type testHost struct {
	atoms   *dispatch.AtomTable
	methods map[*dispatch.Atom]*dispatch.Method
}

func newTestHost() *testHost {
	return &testHost{atoms: dispatch.NewAtomTable(), methods: map[*dispatch.Atom]*dispatch.Method{}}
}

func (h *testHost) TypeOf(v any) typelattice.Type {
	return typelattice.Any
}

func (h *testHost) Lookup(atom *dispatch.Atom) (*dispatch.Method, error) {
	if m, ok := h.methods[atom]; ok {
		return m, nil
	}
	return nil, errNoMethod(atom)
}

func errNoMethod(atom *dispatch.Atom) error {
	return &noMethodError{atom}
}

type noMethodError struct{ atom *dispatch.Atom }

func (e *noMethodError) Error() string { return "no method: " + e.atom.Name }

func (h *testHost) NewContinuation(caller *continuation.Continuation, fn *code.Function, args []any) *continuation.Continuation {
	return continuation.New(caller, fn, args, nil, 0)
}

func TestCallAndReturnRoundTrip(t *testing.T) {
	host := newTestHost()
	identityAtom := host.atoms.Intern("identity")
	identityMethod := dispatch.NewMethod(identityAtom)

	identityCode := code.New(1, 0)
	identityCode.WriteNybble(byte(PushLocal), code.DebugEntry{})
	identityCode.WriteNybble(1, code.DebugEntry{}) // slot 1 = arg 1
	identityCode.WriteNybble(byte(Return), code.DebugEntry{})
	identityFn := code.NewFunction(identityCode, nil, nil)

	if err := identityMethod.AddDefinition(&dispatch.Definition{ArgTypes: []typelattice.Type{typelattice.Any}, Body: identityFn}); err != nil {
		t.Fatal(err)
	}
	host.methods[identityAtom] = identityMethod

	callerCode := code.New(0, 0)
	atomLiteral := callerCode.AddLiteral(identityAtom)
	valueLiteral := callerCode.AddLiteral(int64(42))
	callerCode.WriteNybble(byte(PushLiteral), code.DebugEntry{})
	callerCode.WriteNybble(byte(valueLiteral), code.DebugEntry{})
	callerCode.WriteNybble(byte(Call), code.DebugEntry{})
	callerCode.WriteNybble(byte(atomLiteral), code.DebugEntry{})
	callerCode.WriteNybble(1, code.DebugEntry{})
	callerCode.WriteNybble(byte(Return), code.DebugEntry{})

	callerFn := code.NewFunction(callerCode, nil, nil)
	root := continuation.New(nil, callerFn, nil, nil, 0)

	result, err := Run(root, host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.(int64) != 42 {
		t.Fatalf("expected 42, got %v", result)
	}
}
