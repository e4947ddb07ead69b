// Package dispatch implements multimethod lookup (spec §4.7): selection of
// the most-specific applicable definition across a set of arbitrary-arity
// definitions, using a per-site decision tree built lazily from
// per-argument value-type comparisons. New code — the teacher has only
// single-dispatch method tables (its OBJ_CLASS/OBJ_INSTANCE registration),
// so the registration style (how a definition attaches to a globally
// unique name) is grounded there while the lookup-tree algorithm itself is
// built directly from spec §4.7.
package dispatch

import (
	"sync"

	"github.com/google/uuid"
)

// Atom is a globally unique name value, used as method identifier, field
// key, and error key (spec glossary). Two atoms are equal iff they are the
// same object; two atoms created from the same name string are distinct
// unless explicitly interned via an AtomTable.
type Atom struct {
	Name string
	id   uuid.UUID
}

func newAtom(name string) *Atom {
	return &Atom{Name: name, id: uuid.New()}
}

func (a *Atom) String() string { return a.Name }

// AtomTable interns atoms by name so that repeated lookups of the same
// source-level name yield the same Atom identity — required for method
// atoms, which must be process-wide singletons. Backed by a plain mutex
// map; runtime.Context embeds one of these directly as its atom table,
// reserving the swiss-map-backed structure (Context.Methods) for the
// hotter global method lookup.
type AtomTable struct {
	mu   sync.RWMutex
	byName map[string]*Atom
}

func NewAtomTable() *AtomTable {
	return &AtomTable{byName: make(map[string]*Atom)}
}

// Intern returns the unique Atom for name, creating it on first use.
func (t *AtomTable) Intern(name string) *Atom {
	t.mu.RLock()
	if a, ok := t.byName[name]; ok {
		t.mu.RUnlock()
		return a
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.byName[name]; ok {
		return a
	}
	a := newAtom(name)
	t.byName[name] = a
	return a
}

// Fresh creates an atom not interned in any table — useful for
// compiler-generated temporaries that must never collide with a
// source-level name.
func Fresh(name string) *Atom {
	return newAtom(name)
}
