// Package l2 implements the optimizing register-machine representation of
// spec §3/§4.5: an SSA-like graph of basic blocks emitted from L1 code
// plus type feedback, installed on a function and executed in its place
// until invalidated. Grounded on the teacher's register-based bytecode
// (sentra internal/vmregister/bytecode.go, vm.go) — the iABC/iABx
// instruction formats and inline-cache-flavored fast paths — generalized
// into the manifest-carrying, off-ramp/on-ramp edge model spec §4.5
// requires, which the teacher's register VM does not have (it has no
// deoptimization path back into a slower interpreter).
package l2

import (
	"github.com/valence-lang/valence/internal/continuation"
	"github.com/valence-lang/valence/internal/typelattice"
)

// RegisterKind distinguishes how a register's bits are interpreted.
type RegisterKind int

const (
	KindBoxed RegisterKind = iota
	KindUnboxedInt
	KindUnboxedFloat
)

// Restriction is a live register's type restriction: a type, optionally a
// known constant, and the register's kind.
type Restriction struct {
	Type     typelattice.Type
	Constant any // non-nil if the register's value is known at compile time
	Kind     RegisterKind
}

// SemanticValue is a pure identity for "the contents of local N at time T
// in frame F" (spec glossary), used as a manifest key.
type SemanticValue struct {
	Local int
	Time  int
	Frame int
}

// Manifest maps semantic values to the register holding them plus the
// restriction on that register, maintained bidirectionally so renaming
// and dead-register elimination are cheap.
type Manifest struct {
	forward  map[SemanticValue]int
	backward map[int][]SemanticValue
	restrict map[int]Restriction
}

func NewManifest() *Manifest {
	return &Manifest{
		forward:  map[SemanticValue]int{},
		backward: map[int][]SemanticValue{},
		restrict: map[int]Restriction{},
	}
}

// Bind records that register holds sv, with the given restriction.
func (m *Manifest) Bind(sv SemanticValue, register int, r Restriction) {
	if oldReg, ok := m.forward[sv]; ok {
		m.unbindBackward(oldReg, sv)
	}
	m.forward[sv] = register
	m.backward[register] = append(m.backward[register], sv)
	m.restrict[register] = r
}

func (m *Manifest) unbindBackward(register int, sv SemanticValue) {
	list := m.backward[register]
	for i, v := range list {
		if v == sv {
			m.backward[register] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// RegisterFor returns the register holding sv, if any.
func (m *Manifest) RegisterFor(sv SemanticValue) (int, bool) {
	r, ok := m.forward[sv]
	return r, ok
}

// RestrictionOf returns the type restriction on a register.
func (m *Manifest) RestrictionOf(register int) (Restriction, bool) {
	r, ok := m.restrict[register]
	return r, ok
}

// Intersect computes the manifest at a control-flow merge: the
// intersection of predecessor manifests, reconciling disagreements about
// which register holds a semantic value with a phi — here, the join
// simply drops a semantic value's binding when predecessors disagree
// (modeled as "needs a phi", materialized by the caller inserting one
// targeting a fresh register whose restriction is the union of inputs).
func Intersect(preds ...*Manifest) (*Manifest, []PhiRequirement) {
	if len(preds) == 0 {
		return NewManifest(), nil
	}
	merged := NewManifest()
	var phis []PhiRequirement
	// Only semantic values present (with the SAME register) in every
	// predecessor survive directly; everything else needs a phi.
	counts := map[SemanticValue]map[int]bool{}
	for _, p := range preds {
		for sv, reg := range p.forward {
			if counts[sv] == nil {
				counts[sv] = map[int]bool{}
			}
			counts[sv][reg] = true
		}
	}
	for sv, regs := range counts {
		if len(regs) == 1 {
			for reg := range regs {
				// still must appear in all predecessors, not just one
				inAll := true
				for _, p := range preds {
					if r, ok := p.forward[sv]; !ok || r != reg {
						inAll = false
						break
					}
				}
				if inAll {
					r, _ := preds[0].RestrictionOf(reg)
					merged.Bind(sv, reg, r)
				} else {
					phis = append(phis, PhiRequirement{Value: sv, InputRestrictions: restrictionsFor(preds, sv)})
				}
			}
		} else {
			phis = append(phis, PhiRequirement{Value: sv, InputRestrictions: restrictionsFor(preds, sv)})
		}
	}
	return merged, phis
}

func restrictionsFor(preds []*Manifest, sv SemanticValue) []Restriction {
	var out []Restriction
	for _, p := range preds {
		if reg, ok := p.forward[sv]; ok {
			if r, ok := p.RestrictionOf(reg); ok {
				out = append(out, r)
			}
		}
	}
	return out
}

// PhiRequirement records that sv needs a phi pseudo-operation whose output
// register's restriction is the union of the listed input restrictions.
type PhiRequirement struct {
	Value             SemanticValue
	InputRestrictions []Restriction
}

// UnionRestriction computes the phi output restriction: type union of all
// inputs, boxed unless every input agrees on the same unboxed kind.
func UnionRestriction(inputs []Restriction) Restriction {
	if len(inputs) == 0 {
		return Restriction{Type: typelattice.Any, Kind: KindBoxed}
	}
	result := inputs[0]
	sameKind := true
	for _, r := range inputs[1:] {
		result.Type = typelattice.TypeUnion(result.Type, r.Type)
		if r.Kind != result.Kind {
			sameKind = false
		}
	}
	if !sameKind {
		result.Kind = KindBoxed
	}
	result.Constant = nil // a phi of distinct inputs is never still a known constant
	return result
}

// ReifierSentinel wraps a continuation materialized from a chunk's
// register state at an off-ramp (spec §4.6). Neither Run nor the fiber
// scheduler produces or consumes it: Run returns the reified continuation
// directly in its result, and the scheduler does not assemble chains from
// these values.
type ReifierSentinel struct {
	Continuation *continuation.Continuation
}
