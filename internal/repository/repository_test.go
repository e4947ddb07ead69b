package repository

import (
	"context"
	"testing"

	"github.com/valence-lang/valence/internal/descriptor"
	"github.com/valence-lang/valence/internal/dispatch"
)

func TestStoreAndFingerprintRoundTrip(t *testing.T) {
	repo, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	body := []byte("compiled-method-bytes")
	loader := NewLoader(repo, nil)
	entity, err := loader.AddMethodBody("draw", body)
	if err != nil {
		t.Fatalf("AddMethodBody: %v", err)
	}

	fetched, ok, err := repo.ByFingerprint(context.Background(), entity.Fingerprint)
	if err != nil {
		t.Fatalf("ByFingerprint: %v", err)
	}
	if !ok {
		t.Fatalf("expected to find stored entity by fingerprint")
	}
	if string(fetched.Data) != string(body) {
		t.Fatalf("expected round-tripped data %q, got %q", body, fetched.Data)
	}
	if fetched.AtomName != "draw" {
		t.Fatalf("expected atom name draw, got %s", fetched.AtomName)
	}
}

// TestStoreAndLoadValueRoundTrip covers spec §8 property 6 through the
// repository's own exported surface: a descriptor.Value stored via
// StoreValue and fetched back via LoadValue must be Equals to the
// original, and an atom embedded in it must resolve to the same
// process-wide identity on the far side.
func TestStoreAndLoadValueRoundTrip(t *testing.T) {
	repo, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	atoms := dispatch.NewAtomTable()
	original := atoms.Intern("draw")
	v := descriptor.NewObjectTuple([]*descriptor.Value{
		descriptor.NewInteger(42),
		descriptor.NewAtomValue(original.Name),
	})

	entity, err := repo.StoreValue(KindSemanticRestriction, "draw", v)
	if err != nil {
		t.Fatalf("StoreValue: %v", err)
	}

	loaded, err := repo.LoadValue(context.Background(), entity.ID, atoms)
	if err != nil {
		t.Fatalf("LoadValue: %v", err)
	}
	if !descriptor.Equals(v, loaded) {
		t.Fatalf("expected the loaded value to equal the original")
	}

	tl := loaded.Descriptor().(descriptor.TupleLike)
	decodedAtom := tl.At(loaded, 2)
	recovered := atoms.Intern(descriptor.AtomName(decodedAtom))
	if recovered != original {
		t.Fatalf("expected the decoded atom name to intern back to the same *dispatch.Atom")
	}
}

func TestDescribeCounts(t *testing.T) {
	repo, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	loader := NewLoader(repo, nil)
	if _, err := loader.AddMethodBody("a", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.AddMethodBody("b", []byte("two")); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.AddMacroBody("m", []byte("three")); err != nil {
		t.Fatal(err)
	}

	counts, err := repo.Describe()
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if counts[KindMethodBody] != 2 {
		t.Fatalf("expected 2 method bodies, got %d", counts[KindMethodBody])
	}
	if counts[KindMacroBody] != 1 {
		t.Fatalf("expected 1 macro body, got %d", counts[KindMacroBody])
	}
}

func TestClearRepository(t *testing.T) {
	repo, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	loader := NewLoader(repo, nil)
	if _, err := loader.AddMethodBody("a", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := repo.ClearRepository(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	counts, err := repo.Describe()
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected an empty repository after clear, got %v", counts)
	}
}
