package dispatch

import (
	"sync"

	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/typelattice"
)

// DefinitionKind distinguishes the four shapes a definition may take
// (spec §3/§4.7): a concrete body, abstract (declares a signature with no
// body), forward (reserves a signature pending a later concrete
// definition), or macro (a parse-time body).
type DefinitionKind int

const (
	ConcreteDefinition DefinitionKind = iota
	AbstractDefinition
	ForwardDefinition
	MacroDefinition
)

// Body is the callable implementation of a concrete or macro definition.
// Kept as `any` so this package stays independent of package code/l1 —
// callers (the continuation engine) type-assert it to *code.Function or a
// macro-specific function type.
type Body any

// Definition is one entry in a Method's ordered set, per spec §3: a
// concrete body + signature, or abstract, or forward, or macro. No two
// definitions on the same method may share an equal argument-tuple type.
type Definition struct {
	Kind      DefinitionKind
	ArgTypes  []typelattice.Type
	Body      Body
	// PrefixFunctions are keyed by the zero-based index of the section
	// marker in the macro's message name they run after, per spec §4.7.
	PrefixFunctions map[int]Body
}

func signatureType(argTypes []typelattice.Type) typelattice.Type {
	elems := make([]typelattice.Type, len(argTypes))
	copy(elems, argTypes)
	return typelattice.Tuple(len(elems), len(elems), elems, typelattice.Bottom)
}

// SemanticRestriction is a compile-time type refiner: invoked with the
// static argument types at a call site, it may narrow the statically
// known return type or reject the parse (spec §4.7).
type SemanticRestriction struct {
	ArgMetaTypes []typelattice.Type // types-of-types the restriction applies to
	Refine       func(argTypes []typelattice.Type) (typelattice.Type, error)
}

// GrammaticalRestriction forbids a set of message atoms as the outermost
// send of one argument position (spec §4.7/§6).
type GrammaticalRestriction struct {
	ForbiddenAtoms map[string]struct{}
}

// Method owns a method's full definition set plus its caches.
type Method struct {
	Atom *Atom

	mu                  sync.RWMutex
	definitions         []*Definition
	semanticRestrictions []*SemanticRestriction
	grammaticalByArg    []*GrammaticalRestriction

	tree *treeNode // lazily built lookup tree, invalidated on definition-set change
}

func NewMethod(atom *Atom) *Method {
	return &Method{Atom: atom}
}

// AddDefinition installs a new definition, rejecting a duplicate argument
// tuple type (spec invariant: "no two method definitions may have equal
// argument-tuple types").
func (m *Method) AddDefinition(d *Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newSig := signatureType(d.ArgTypes)
	for _, existing := range m.definitions {
		if typelattice.Compare(signatureType(existing.ArgTypes), newSig) == typelattice.SameType {
			return diagnostic.Runtime(diagnostic.CodeRedefinedWithSameArgumentTypes,
				"method %s already has a definition with this argument signature", m.Atom)
		}
	}
	m.definitions = append(m.definitions, d)
	m.tree = nil // invalidate the lookup tree; it is rebuilt lazily
	return nil
}

// AddSemanticRestriction attaches a compile-time type refiner.
func (m *Method) AddSemanticRestriction(r *SemanticRestriction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.semanticRestrictions = append(m.semanticRestrictions, r)
}

// SetGrammaticalRestriction installs the forbidden-atom set for one
// argument position.
func (m *Method) SetGrammaticalRestriction(argPosition int, forbidden map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.grammaticalByArg) <= argPosition {
		m.grammaticalByArg = append(m.grammaticalByArg, &GrammaticalRestriction{ForbiddenAtoms: map[string]struct{}{}})
	}
	m.grammaticalByArg[argPosition] = &GrammaticalRestriction{ForbiddenAtoms: forbidden}
}

// GrammaticalRestrictionAt returns the forbidden-atom set for argPosition,
// or nil if none is registered.
func (m *Method) GrammaticalRestrictionAt(argPosition int) *GrammaticalRestriction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if argPosition >= len(m.grammaticalByArg) {
		return nil
	}
	return m.grammaticalByArg[argPosition]
}

// Definitions returns a snapshot of the current definition set.
func (m *Method) Definitions() []*Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make([]*Definition, len(m.definitions))
	copy(cp, m.definitions)
	return cp
}

// ApplicableSemanticRestrictions returns the restrictions whose
// ArgMetaTypes lookup tree matches argTypes; modeled directly, without a
// separate tree, since restriction sets are typically small.
func (m *Method) ApplicableSemanticRestrictions(argTypes []typelattice.Type) []*SemanticRestriction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var applicable []*SemanticRestriction
	for _, r := range m.semanticRestrictions {
		if len(r.ArgMetaTypes) != len(argTypes) {
			continue
		}
		match := true
		for i, mt := range r.ArgMetaTypes {
			if !typelattice.IsSubtypeOf(argTypes[i], mt) {
				match = false
				break
			}
		}
		if match {
			applicable = append(applicable, r)
		}
	}
	return applicable
}
