package runtime

import (
	"testing"

	"github.com/valence-lang/valence/internal/code"
	"github.com/valence-lang/valence/internal/descriptor"
	"github.com/valence-lang/valence/internal/dispatch"
	"github.com/valence-lang/valence/internal/typelattice"
)

func TestDefineAndLookupMethod(t *testing.T) {
	ctx, err := New(Config{RepositoryPath: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	atom := ctx.Atoms.Intern("greet")
	body := code.NewFunction(code.New(1, 0), nil, nil)
	def := &dispatch.Definition{ArgTypes: []typelattice.Type{typelattice.Any}, Body: body}

	if err := ctx.DefineMethod(atom, def); err != nil {
		t.Fatalf("DefineMethod: %v", err)
	}

	m, err := ctx.Lookup(atom)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(m.Definitions()) != 1 {
		t.Fatalf("expected one definition, got %d", len(m.Definitions()))
	}

	snap := ctx.Stats.Snapshot()
	if snap.MethodDefinitions != 1 {
		t.Fatalf("expected 1 method definition counted, got %d", snap.MethodDefinitions)
	}
	if snap.ChunkInvalidations != 1 {
		t.Fatalf("expected defining a method to invalidate chunks once, got %d", snap.ChunkInvalidations)
	}
}

func TestLookupMissingMethod(t *testing.T) {
	ctx, err := New(Config{RepositoryPath: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	atom := ctx.Atoms.Intern("missing")
	if _, err := ctx.Lookup(atom); err == nil {
		t.Fatalf("expected an error looking up an undefined method")
	}
}

func TestTypeOfIntegerIsExactSingleton(t *testing.T) {
	ctx, err := New(Config{RepositoryPath: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	ty := ctx.TypeOf(int64(42))
	if !typelattice.IsSubtypeOf(ty, typelattice.IntegerRange(42, true, 42, true)) {
		t.Fatalf("expected TypeOf(42) to be the exact singleton range, got %v", ty)
	}
}

// TestTypeOfDescriptorValueDiscriminatesByFamily covers scenario E1/E2:
// dispatch over real descriptor.Value arguments must be able to tell an
// integer apart from a tuple through TypeOf, not just through a
// hand-built typelattice.Type.
func TestTypeOfDescriptorValueDiscriminatesByFamily(t *testing.T) {
	ctx, err := New(Config{RepositoryPath: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	intVal := descriptor.NewInteger(7)
	tupleVal := descriptor.NewObjectTuple([]*descriptor.Value{descriptor.NewInteger(1), descriptor.NewInteger(2)})

	intType := ctx.TypeOf(intVal)
	tupleType := ctx.TypeOf(tupleVal)

	if typelattice.IsSubtypeOf(intType, tupleType) || typelattice.IsSubtypeOf(tupleType, intType) {
		t.Fatalf("expected an integer value and a tuple value to classify as unrelated types, got %v and %v", intType, tupleType)
	}
	if !typelattice.IsSubtypeOf(intType, typelattice.IntegerRange(7, true, 7, true)) {
		t.Fatalf("expected the integer descriptor value to classify as the exact singleton range, got %v", intType)
	}
}
