package dispatch

import (
	"testing"

	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/typelattice"
)

func integerInstance() typelattice.Type {
	return typelattice.IntegerRange(typelattice.NegInf, false, typelattice.PosInf, false)
}

func stringInstance() typelattice.Type {
	return typelattice.Object(map[string]typelattice.Type{"__is_string": typelattice.Any})
}

func characterInstance() typelattice.Type {
	return typelattice.Object(map[string]typelattice.Type{"__is_character": typelattice.Any})
}

// TestDispatchWithDisjointSignatures is scenario E1 from spec §8.
func TestDispatchWithDisjointSignatures(t *testing.T) {
	atoms := NewAtomTable()
	m := NewMethod(atoms.Intern("m"))

	intDef := &Definition{ArgTypes: []typelattice.Type{integerInstance()}, Body: "integer-handler"}
	strDef := &Definition{ArgTypes: []typelattice.Type{stringInstance()}, Body: "string-handler"}
	if err := m.AddDefinition(intDef); err != nil {
		t.Fatal(err)
	}
	if err := m.AddDefinition(strDef); err != nil {
		t.Fatal(err)
	}

	d, err := m.LookupByValuesFromList([]typelattice.Type{integerInstance()})
	if err != nil || d.Body != "integer-handler" {
		t.Fatalf("expected integer-handler, got %v err=%v", d, err)
	}
	d, err = m.LookupByValuesFromList([]typelattice.Type{stringInstance()})
	if err != nil || d.Body != "string-handler" {
		t.Fatalf("expected string-handler, got %v err=%v", d, err)
	}

	charDef := &Definition{ArgTypes: []typelattice.Type{characterInstance()}, Body: "character-handler"}
	if err := m.AddDefinition(charDef); err != nil {
		t.Fatal(err)
	}

	d, err = m.LookupByValuesFromList([]typelattice.Type{integerInstance()})
	if err != nil || d.Body != "integer-handler" {
		t.Fatalf("after adding character handler, expected integer-handler still, got %v err=%v", d, err)
	}
	d, err = m.LookupByValuesFromList([]typelattice.Type{stringInstance()})
	if err != nil || d.Body != "string-handler" {
		t.Fatalf("after adding character handler, expected string-handler still, got %v err=%v", d, err)
	}
}

// TestAmbiguousDispatch is scenario E2 from spec §8.
func TestAmbiguousDispatch(t *testing.T) {
	atoms := NewAtomTable()
	m := NewMethod(atoms.Intern("m"))

	d1 := &Definition{ArgTypes: []typelattice.Type{typelattice.Any}, Body: "first"}
	d2 := &Definition{ArgTypes: []typelattice.Type{typelattice.Any}, Body: "second"}
	if err := m.AddDefinition(d1); err != nil {
		t.Fatal(err)
	}
	// Two definitions with the SAME argument-tuple type are rejected
	// outright by AddDefinition; to reach a genuine ambiguity we need two
	// incomparable-but-overlapping signatures instead.
	if err := m.AddDefinition(d2); err == nil {
		t.Fatalf("expected redefinition with identical signature to be rejected")
	}

	// Two incomparable signatures over a 2-tuple produce ambiguity for an
	// argument pair that satisfies both.
	m2 := NewMethod(atoms.Intern("m2"))
	left := &Definition{ArgTypes: []typelattice.Type{integerInstance(), typelattice.Any}, Body: "left"}
	right := &Definition{ArgTypes: []typelattice.Type{typelattice.Any, integerInstance()}, Body: "right"}
	if err := m2.AddDefinition(left); err != nil {
		t.Fatal(err)
	}
	if err := m2.AddDefinition(right); err != nil {
		t.Fatal(err)
	}
	_, err := m2.LookupByValuesFromList([]typelattice.Type{integerInstance(), integerInstance()})
	diag, ok := err.(*diagnostic.Diagnostic)
	if !ok || diag.Code != diagnostic.CodeAmbiguousMethodDefinition {
		t.Fatalf("expected AmbiguousMethodDefinition, got %v", err)
	}
}

func TestLookupDeterminismUnderTreeGrowth(t *testing.T) {
	atoms := NewAtomTable()
	m := NewMethod(atoms.Intern("m"))
	_ = m.AddDefinition(&Definition{ArgTypes: []typelattice.Type{integerInstance()}, Body: "int"})

	first, _ := m.LookupByValuesFromList([]typelattice.Type{integerInstance()})
	second, _ := m.LookupByValuesFromList([]typelattice.Type{integerInstance()})
	if first != second {
		t.Fatalf("expected repeated lookup of the same types to be deterministic")
	}
}
