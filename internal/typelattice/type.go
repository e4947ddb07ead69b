// Package typelattice implements the structural type lattice of spec §3
// and §4.2: a top (any) and bottom (⊥), with function, tuple, map, set,
// integer-range, variable, object, phrase, continuation, and instance
// (enumeration) variants, closed under union and intersection. Lattice
// queries are total: no result is an error, but a handful of accessors
// (LowerBound, Instance) fail with WrongKindOfType when asked of the
// wrong variant, per spec §4.2.
//
// Grounded on the teacher's OBJ_* tag set (sentra internal/vmregister) for
// the idea of a small closed set of representations dispatched through a
// table, generalized here into a genuine subtyping lattice, which the
// teacher does not have.
package typelattice

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/slices"
)

// Type is implemented by every lattice member. All three core queries are
// double-dispatched: IsSubtypeOf(s, t) calls s's isSubtypeOfDispatch
// with t, so s classifies itself against the peer variants it knows,
// in the manner of the descriptor package's equality double dispatch.
type Type interface {
	fmt.Stringer
	// isSubtypeOfDispatch is called back by IsSubtypeOf so each variant
	// only needs to know how to be compared against known peer variants;
	// an unknown peer falls through to false (except against Any/Bottom,
	// handled centrally).
	isSubtypeOfDispatch(other Type) bool
	unionDispatch(other Type) Type
	intersectionDispatch(other Type) Type
}

// IsSubtypeOf reports whether s <= t in the lattice.
func IsSubtypeOf(s, t Type) bool {
	if _, ok := t.(anyType); ok {
		return true
	}
	if _, ok := s.(bottomType); ok {
		return true
	}
	if _, ok := s.(anyType); ok {
		if _, ok2 := t.(anyType); ok2 {
			return true
		}
		return false
	}
	if _, ok := t.(bottomType); ok {
		if _, ok2 := s.(bottomType); ok2 {
			return true
		}
		return false
	}
	return s.isSubtypeOfDispatch(t)
}

// TypeUnion computes s ∪ t.
func TypeUnion(s, t Type) Type {
	if IsSubtypeOf(s, t) {
		return t
	}
	if IsSubtypeOf(t, s) {
		return s
	}
	return s.unionDispatch(t)
}

// TypeIntersection computes s ∩ t, collapsing disjoint intersections to ⊥.
func TypeIntersection(s, t Type) Type {
	if IsSubtypeOf(s, t) {
		return s
	}
	if IsSubtypeOf(t, s) {
		return t
	}
	result := s.intersectionDispatch(t)
	if result == nil {
		return Bottom
	}
	return result
}

// Relation classifies a pair of signatures for the method dispatch tree
// (spec §4.7).
type Relation int

const (
	Disjoint Relation = iota
	SameType
	ProperAncestorType
	ProperDescendantType
	UnrelatedType
)

// Compare classifies s against t per spec §4.7: intersect first; if ⊥ they
// are Disjoint, otherwise classify by the pair (s<=t, t<=s).
func Compare(s, t Type) Relation {
	if _, bot := TypeIntersection(s, t).(bottomType); bot {
		return Disjoint
	}
	sLEt, tLEs := IsSubtypeOf(s, t), IsSubtypeOf(t, s)
	switch {
	case sLEt && tLEs:
		return SameType
	case sLEt:
		return ProperDescendantType
	case tLEs:
		return ProperAncestorType
	default:
		return UnrelatedType
	}
}

// --- any / bottom -----------------------------------------------------

type anyType struct{}
type bottomType struct{}

// Any is the lattice top: every value's type is a subtype of Any.
var Any Type = anyType{}

// Bottom is the uninstantiable lattice bottom.
var Bottom Type = bottomType{}

func (anyType) String() string                      { return "any" }
func (anyType) isSubtypeOfDispatch(other Type) bool  { _, ok := other.(anyType); return ok }
func (anyType) unionDispatch(Type) Type              { return Any }
func (anyType) intersectionDispatch(other Type) Type { return other }

func (bottomType) String() string                      { return "⊥" }
func (bottomType) isSubtypeOfDispatch(Type) bool        { return true }
func (bottomType) unionDispatch(other Type) Type        { return other }
func (bottomType) intersectionDispatch(Type) Type       { return Bottom }

// WrongKindOfType is returned by accessors that only apply to a specific
// variant (LowerBound on a non-range type, Instance on a non-singleton
// enumeration), per spec §4.2.
type WrongKindOfType struct {
	Want string
	Got  Type
}

func (e *WrongKindOfType) Error() string {
	return fmt.Sprintf("wrong kind of type: wanted %s, got %s", e.Want, e.Got)
}

// --- instance enumeration ----------------------------------------------

// InstanceComparable is the minimal identity contract an enumeration's
// members must satisfy; descriptor.Value implements it via
// descriptor.Equals/Hash, but typelattice stays independent of that
// package so the lattice can be exercised without a full value heap.
type InstanceComparable interface {
	comparable
}

// instanceType is a finite, explicit set of member keys. Of size 1 it is a
// singleton type; of size 0 it is ⊥ (enforced by the Instances
// constructor, which returns Bottom for an empty set).
type instanceType struct {
	members []string // canonical string keys of the members, sorted
	byKey   map[string]any
}

// Instances builds the instance-type enumerating the given members, keyed
// by the caller-supplied canonical string form of each member (so callers
// owning richer value identities — e.g. descriptor.Value — can key by
// hash/print-string without this package depending on them). An empty set
// normalizes to Bottom, a one-element set is a singleton type.
func Instances(keyed map[string]any) Type {
	if len(keyed) == 0 {
		return Bottom
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return instanceType{members: keys, byKey: keyed}
}

func (t instanceType) String() string {
	return "{" + strings.Join(t.members, ", ") + "}"
}

// Instance returns the sole member of a singleton instance type, or a
// WrongKindOfType error otherwise.
func Instance(t Type) (any, error) {
	it, ok := t.(instanceType)
	if !ok || len(it.members) != 1 {
		return nil, &WrongKindOfType{Want: "singleton instance type", Got: t}
	}
	return it.byKey[it.members[0]], nil
}

func (t instanceType) isSubtypeOfDispatch(other Type) bool {
	ot, ok := other.(instanceType)
	if !ok {
		return false
	}
	for _, m := range t.members {
		if !slices.Contains(ot.members, m) {
			return false
		}
	}
	return true
}

func (t instanceType) unionDispatch(other Type) Type {
	ot, ok := other.(instanceType)
	if !ok {
		return Any
	}
	merged := make(map[string]any, len(t.byKey)+len(ot.byKey))
	for k, v := range t.byKey {
		merged[k] = v
	}
	for k, v := range ot.byKey {
		merged[k] = v
	}
	return Instances(merged)
}

func (t instanceType) intersectionDispatch(other Type) Type {
	ot, ok := other.(instanceType)
	if !ok {
		return Bottom
	}
	merged := make(map[string]any)
	for k, v := range t.byKey {
		if _, present := ot.byKey[k]; present {
			merged[k] = v
		}
	}
	return Instances(merged)
}
