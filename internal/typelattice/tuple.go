package typelattice

import (
	"fmt"
	"strings"
)

// UnboundedSize marks a tuple type's size-range as having no upper bound.
const UnboundedSize = -1

// tupleType combines a size-range, a prefix of per-index element types,
// and a default tail type applied to every index beyond the prefix, per
// spec §4.2.
type tupleType struct {
	minSize  int
	maxSize  int // UnboundedSize for no upper bound
	prefix   []Type
	tailType Type
}

func Tuple(minSize, maxSize int, prefix []Type, tail Type) Type {
	return tupleType{minSize: minSize, maxSize: maxSize, prefix: append([]Type(nil), prefix...), tailType: tail}
}

func (t tupleType) String() string {
	parts := make([]string, len(t.prefix))
	for i, p := range t.prefix {
		parts[i] = p.String()
	}
	max := "∞"
	if t.maxSize != UnboundedSize {
		max = fmt.Sprintf("%d", t.maxSize)
	}
	return fmt.Sprintf("tuple[%d..%s](%s, %s*)", t.minSize, max, strings.Join(parts, ", "), t.tailType)
}

func (t tupleType) elementTypeAt(i int) Type {
	if i < len(t.prefix) {
		return t.prefix[i]
	}
	return t.tailType
}

func sizeRangeSubtype(aMin, aMax, bMin, bMax int) bool {
	if aMin < bMin {
		return false
	}
	if bMax == UnboundedSize {
		return true
	}
	if aMax == UnboundedSize {
		return false
	}
	return aMax <= bMax
}

func (t tupleType) isSubtypeOfDispatch(other Type) bool {
	ot, ok := other.(tupleType)
	if !ok {
		return false
	}
	if !sizeRangeSubtype(t.minSize, t.maxSize, ot.minSize, ot.maxSize) {
		return false
	}
	limit := len(t.prefix)
	if len(ot.prefix) > limit {
		limit = len(ot.prefix)
	}
	for i := 0; i < limit; i++ {
		if !IsSubtypeOf(t.elementTypeAt(i), ot.elementTypeAt(i)) {
			return false
		}
	}
	return IsSubtypeOf(t.tailType, ot.tailType)
}

func unionMinMax(op func(a, b int) int, aMax, bMax int) int {
	if aMax == UnboundedSize || bMax == UnboundedSize {
		return UnboundedSize
	}
	return op(aMax, bMax)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (t tupleType) unionDispatch(other Type) Type {
	ot, ok := other.(tupleType)
	if !ok {
		return Any
	}
	limit := len(t.prefix)
	if len(ot.prefix) < limit {
		limit = len(ot.prefix)
	}
	prefix := make([]Type, limit)
	for i := 0; i < limit; i++ {
		prefix[i] = TypeUnion(t.prefix[i], ot.prefix[i])
	}
	return Tuple(min(t.minSize, ot.minSize), unionMinMax(max, t.maxSize, ot.maxSize), prefix, TypeUnion(t.tailType, ot.tailType))
}

func (t tupleType) intersectionDispatch(other Type) Type {
	ot, ok := other.(tupleType)
	if !ok {
		return Bottom
	}
	newMin := max(t.minSize, ot.minSize)
	newMax := t.maxSize
	if ot.maxSize != UnboundedSize && (t.maxSize == UnboundedSize || ot.maxSize < t.maxSize) {
		newMax = ot.maxSize
	}
	if newMax != UnboundedSize && newMax < newMin {
		return Bottom
	}
	limit := len(t.prefix)
	if len(ot.prefix) > limit {
		limit = len(ot.prefix)
	}
	prefix := make([]Type, limit)
	for i := 0; i < limit; i++ {
		prefix[i] = TypeIntersection(t.elementTypeAt(i), ot.elementTypeAt(i))
		if _, bot := prefix[i].(bottomType); bot {
			return Bottom
		}
	}
	tail := TypeIntersection(t.tailType, ot.tailType)
	return Tuple(newMin, newMax, prefix, tail)
}
