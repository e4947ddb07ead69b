package typelattice

import "fmt"

// Bound sentinels for signed infinities, independent of descriptor's
// integer representation so this package has no dependency on the value
// heap.
const (
	NegInf = int64(-1) << 62
	PosInf = int64(1) << 62
)

// integerRangeType is bounded by a lower and upper bound, each possibly
// inclusive or exclusive, possibly at signed infinity.
type integerRangeType struct {
	lower         int64
	lowerInclusive bool
	upper         int64
	upperInclusive bool
}

func IntegerRange(lower int64, lowerInclusive bool, upper int64, upperInclusive bool) Type {
	if effectiveEmpty(lower, lowerInclusive, upper, upperInclusive) {
		return Bottom
	}
	return integerRangeType{lower, lowerInclusive, upper, upperInclusive}
}

func effectiveEmpty(lo int64, loInc bool, hi int64, hiInc bool) bool {
	if lo > hi {
		return true
	}
	if lo == hi && !(loInc && hiInc) {
		return true
	}
	return false
}

func (t integerRangeType) String() string {
	lb, rb := "(", ")"
	if t.lowerInclusive {
		lb = "["
	}
	if t.upperInclusive {
		rb = "]"
	}
	return fmt.Sprintf("%s%s..%s%s", lb, boundString(t.lower), boundString(t.upper), rb)
}

func boundString(b int64) string {
	switch b {
	case NegInf:
		return "-inf"
	case PosInf:
		return "+inf"
	default:
		return fmt.Sprintf("%d", b)
	}
}

// LowerBound returns the lower bound of a range type, or a
// WrongKindOfType error if t is not a range.
func LowerBound(t Type) (int64, error) {
	rt, ok := t.(integerRangeType)
	if !ok {
		return 0, &WrongKindOfType{Want: "integer range", Got: t}
	}
	return rt.lower, nil
}

// UpperBound returns the upper bound of a range type, or a
// WrongKindOfType error if t is not a range.
func UpperBound(t Type) (int64, error) {
	rt, ok := t.(integerRangeType)
	if !ok {
		return 0, &WrongKindOfType{Want: "integer range", Got: t}
	}
	return rt.upper, nil
}

// effectiveLower/effectiveUpper normalize exclusive integer bounds to
// inclusive ones when finite, since integers have no fractional gap
// between consecutive values.
func (t integerRangeType) effectiveLower() int64 {
	if !t.lowerInclusive && t.lower != NegInf {
		return t.lower + 1
	}
	return t.lower
}

func (t integerRangeType) effectiveUpper() int64 {
	if !t.upperInclusive && t.upper != PosInf {
		return t.upper - 1
	}
	return t.upper
}

func (t integerRangeType) isSubtypeOfDispatch(other Type) bool {
	ot, ok := other.(integerRangeType)
	if !ok {
		return false
	}
	return t.effectiveLower() >= ot.effectiveLower() && t.effectiveUpper() <= ot.effectiveUpper()
}

func (t integerRangeType) unionDispatch(other Type) Type {
	ot, ok := other.(integerRangeType)
	if !ok {
		return Any
	}
	lo, loInc := t.lower, t.lowerInclusive
	if ot.effectiveLower() < t.effectiveLower() {
		lo, loInc = ot.lower, ot.lowerInclusive
	}
	hi, hiInc := t.upper, t.upperInclusive
	if ot.effectiveUpper() > t.effectiveUpper() {
		hi, hiInc = ot.upper, ot.upperInclusive
	}
	return IntegerRange(lo, loInc, hi, hiInc)
}

func (t integerRangeType) intersectionDispatch(other Type) Type {
	ot, ok := other.(integerRangeType)
	if !ok {
		return Bottom
	}
	lo, loInc := t.lower, t.lowerInclusive
	if ot.effectiveLower() > t.effectiveLower() {
		lo, loInc = ot.lower, ot.lowerInclusive
	}
	hi, hiInc := t.upper, t.upperInclusive
	if ot.effectiveUpper() < t.effectiveUpper() {
		hi, hiInc = ot.upper, ot.upperInclusive
	}
	return IntegerRange(lo, loInc, hi, hiInc)
}
