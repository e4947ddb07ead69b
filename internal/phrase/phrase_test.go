package phrase

import "testing"

func TestSendNodeShape(t *testing.T) {
	n := Send(VariableUse("x"), "plus:", Literal(int64(1)))
	if n.Kind != KindSend {
		t.Fatalf("expected KindSend, got %v", n.Kind)
	}
	if n.Receiver.Kind != KindVariableUse || n.Receiver.Name != "x" {
		t.Fatalf("unexpected receiver: %+v", n.Receiver)
	}
	if len(n.Arguments) != 1 || n.Arguments[0].LiteralValue.(int64) != 1 {
		t.Fatalf("unexpected arguments: %+v", n.Arguments)
	}
}

func TestFirstOfSequenceHoldsAlternatives(t *testing.T) {
	n := FirstOfSequence(Literal(int64(1)), Literal(int64(2)))
	if n.Kind != KindFirstOfSequence || len(n.Alternatives) != 2 {
		t.Fatalf("unexpected node: %+v", n)
	}
}

func TestKindStringIsStable(t *testing.T) {
	if KindSend.String() != "send" {
		t.Fatalf("expected \"send\", got %q", KindSend.String())
	}
}

// TestPrefixSectionsSeeOnlyEarlierBindings covers scenario E4: a later
// section may read what an earlier section installed, but a section
// cannot see a binding that no section has installed yet.
func TestPrefixSectionsSeeOnlyEarlierBindings(t *testing.T) {
	macro := &Node{
		Kind:     KindMacroSubstitution,
		Bindings: map[string]*Node{"seed": Literal(int64(1))},
	}

	var sawDerivedBeforeItExisted bool
	sections := []PrefixSection{
		{
			Name: "first",
			Transform: func(visible map[string]*Node) (string, *Node) {
				if _, ok := visible["derived"]; ok {
					sawDerivedBeforeItExisted = true
				}
				seed := visible["seed"].LiteralValue.(int64)
				return "derived", Literal(seed + 1)
			},
		},
		{
			Name: "second",
			Transform: func(visible map[string]*Node) (string, *Node) {
				derived := visible["derived"].LiteralValue.(int64)
				return "final", Literal(derived * 10)
			},
		},
	}

	result := RunPrefixSections(macro, sections)

	if sawDerivedBeforeItExisted {
		t.Fatalf("the first section must not see a binding no section has installed yet")
	}
	if result["derived"].LiteralValue.(int64) != 2 {
		t.Fatalf("expected the second section to see the first section's output, got %+v", result["derived"])
	}
	if result["final"].LiteralValue.(int64) != 20 {
		t.Fatalf("expected the final binding to be derived from the second section, got %+v", result["final"])
	}
}
