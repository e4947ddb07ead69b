package dispatch

import (
	"sync"

	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/typelattice"
)

// treeNode is one node of a method's lazy lookup-tree cache (spec §4.7):
// an interior node tests one argument position against one type,
// branching into the subset of definitions whose signature accepts a
// value of that type at that position (true side) and the subset that may
// not (false side); a leaf holds the outcome.
type treeNode struct {
	mu sync.Mutex

	// interior node fields
	testArgPosition int
	testType        typelattice.Type
	trueBranch      *treeNode
	falseBranch     *treeNode

	// leaf node fields (isLeaf marks a leaf; a node with neither isLeaf
	// nor a testType has not been grown yet)
	isLeaf       bool
	leafOutcome  *outcome
	candidates   []*Definition // definitions not yet fully decided at this node
}

type outcomeKind int

const (
	outcomeUnique outcomeKind = iota
	outcomeAmbiguous
	outcomeNoMatch
)

type outcome struct {
	kind       outcomeKind
	definition *Definition // valid when kind == outcomeUnique
	ambiguous  []*Definition
}

func newRoot(definitions []*Definition) *treeNode {
	return &treeNode{candidates: definitions}
}

// LookupByValuesFromList returns the most-specific applicable definition
// for the given concrete argument types (the types of the actual argument
// values), building tree nodes lazily as new combinations are observed.
func (m *Method) LookupByValuesFromList(argTypes []typelattice.Type) (*Definition, error) {
	return m.lookup(argTypes)
}

// LookupByTypesFromList performs the same selection for static/type-only
// dispatch (spec §4.7) — identical algorithm, different caller intent.
func (m *Method) LookupByTypesFromList(argTypes []typelattice.Type) (*Definition, error) {
	return m.lookup(argTypes)
}

func (m *Method) lookup(argTypes []typelattice.Type) (*Definition, error) {
	m.mu.Lock()
	if len(m.definitions) == 0 {
		m.mu.Unlock()
		return nil, diagnostic.Runtime(diagnostic.CodeNoMethod, "no method named %s", m.Atom)
	}
	if m.tree == nil {
		m.tree = newRoot(m.definitions)
	}
	root := m.tree
	m.mu.Unlock()

	node := root
	for {
		node.mu.Lock()
		if node.isLeaf {
			o := node.leafOutcome
			node.mu.Unlock()
			return outcomeToResult(o)
		}
		if node.testType == nil {
			// Not yet decided: grow this node now. growNode takes over the
			// lock it was handed and releases it before returning.
			grown := growNode(node, argTypes)
			if grown.isLeaf {
				return outcomeToResult(grown.leafOutcome)
			}
			node = grown
			continue
		}
		take := typelattice.IsSubtypeOf(argTypes[node.testArgPosition], node.testType)
		var next *treeNode
		if take {
			next = node.trueBranch
		} else {
			next = node.falseBranch
		}
		node.mu.Unlock()
		node = next
	}
}

// growNode decides the outcome or test for a node given a concrete
// argument-type tuple that reached it, mutating the node in place. Tree
// growth is additive and monotone: an unrelated future lookup that
// reaches a different leaf never has to revisit this node's decision,
// matching spec §8 property 4 (adding an unrelated definition never
// changes the result for disjoint inputs).
// growNode decides the outcome or test for node, which the caller has
// already locked; growNode releases that lock (and, when it recurses into
// a freshly created child, acquires the child's lock first) before
// returning, so the lookup loop never holds more than one node's lock at
// a time.
func growNode(node *treeNode, argTypes []typelattice.Type) *treeNode {
	applicable := filterApplicable(node.candidates, argTypes)
	switch len(applicable) {
	case 0:
		node.isLeaf = true
		node.leafOutcome = &outcome{kind: outcomeNoMatch}
		node.mu.Unlock()
		return node
	case 1:
		node.isLeaf = true
		node.leafOutcome = &outcome{kind: outcomeUnique, definition: applicable[0]}
		node.mu.Unlock()
		return node
	}
	if mostSpecific := uniqueMostSpecific(applicable); mostSpecific != nil {
		node.isLeaf = true
		node.leafOutcome = &outcome{kind: outcomeUnique, definition: mostSpecific}
		node.mu.Unlock()
		return node
	}
	pos, typ, ok := pickDiscriminatingTest(applicable)
	if !ok {
		node.isLeaf = true
		node.leafOutcome = &outcome{kind: outcomeAmbiguous, ambiguous: applicable}
		node.mu.Unlock()
		return node
	}
	node.testArgPosition = pos
	node.testType = typ
	trueBranch := &treeNode{candidates: filterApplicable(applicable, withReplacedType(argTypes, pos, typ))}
	falseBranch := &treeNode{candidates: applicable}
	node.trueBranch = trueBranch
	node.falseBranch = falseBranch

	var next *treeNode
	if typelattice.IsSubtypeOf(argTypes[pos], typ) {
		next = trueBranch
	} else {
		next = falseBranch
	}
	node.mu.Unlock()
	next.mu.Lock()
	// Re-run growth on the branch matching this argTypes so the caller's
	// lookup makes progress immediately instead of revisiting growNode.
	return growNode(next, argTypes)
}

func filterApplicable(defs []*Definition, argTypes []typelattice.Type) []*Definition {
	var out []*Definition
	for _, d := range defs {
		if len(d.ArgTypes) != len(argTypes) {
			continue
		}
		ok := true
		for i, at := range d.ArgTypes {
			if !typelattice.IsSubtypeOf(argTypes[i], at) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, d)
		}
	}
	return out
}

// uniqueMostSpecific returns the definition whose signature is a proper
// descendant of (or equal to, deduplicated) every other applicable
// definition's signature, or nil if no such definition exists (i.e. at
// least two are incomparable -> ambiguous).
func uniqueMostSpecific(defs []*Definition) *Definition {
	if len(defs) == 1 {
		return defs[0]
	}
	var best *Definition
	for _, candidate := range defs {
		isMostSpecific := true
		for _, other := range defs {
			if other == candidate {
				continue
			}
			rel := typelattice.Compare(signatureType(candidate.ArgTypes), signatureType(other.ArgTypes))
			if rel != typelattice.ProperDescendantType && rel != typelattice.SameType {
				isMostSpecific = false
				break
			}
		}
		if isMostSpecific {
			if best != nil {
				return nil // more than one most-specific -> ambiguous
			}
			best = candidate
		}
	}
	return best
}

// pickDiscriminatingTest finds an argument position and type that splits
// the candidate set into at least two non-empty, distinct groups.
func pickDiscriminatingTest(defs []*Definition) (int, typelattice.Type, bool) {
	arity := len(defs[0].ArgTypes)
	for pos := 0; pos < arity; pos++ {
		for _, d := range defs {
			typ := d.ArgTypes[pos]
			var trueCount, falseCount int
			for _, other := range defs {
				if typelattice.IsSubtypeOf(other.ArgTypes[pos], typ) {
					trueCount++
				} else {
					falseCount++
				}
			}
			if trueCount > 0 && falseCount > 0 {
				return pos, typ, true
			}
		}
	}
	return 0, nil, false
}

func withReplacedType(argTypes []typelattice.Type, pos int, typ typelattice.Type) []typelattice.Type {
	cp := append([]typelattice.Type(nil), argTypes...)
	cp[pos] = typ
	return cp
}

func outcomeToResult(o *outcome) (*Definition, error) {
	switch o.kind {
	case outcomeUnique:
		switch o.definition.Kind {
		case AbstractDefinition:
			return nil, diagnostic.Runtime(diagnostic.CodeAbstractMethodDefinition, "method definition is abstract")
		case ForwardDefinition:
			return nil, diagnostic.Runtime(diagnostic.CodeForwardMethodDefinition, "method definition is a forward declaration")
		default:
			return o.definition, nil
		}
	case outcomeAmbiguous:
		return nil, diagnostic.Runtime(diagnostic.CodeAmbiguousMethodDefinition, "ambiguous method definition among %d candidates", len(o.ambiguous))
	default:
		return nil, diagnostic.Runtime(diagnostic.CodeNoMethodDefinition, "no applicable method definition")
	}
}
