package primitive

import (
	"github.com/valence-lang/valence/internal/diagnostic"
)

// RegisterArithmetic installs the small set of integer/float primitives
// every backend (L1 fallback and L2 fast paths alike) needs directly,
// mirroring the teacher's createStringFunc/registerGlobal family
// (sentra internal/vmregister/stdlib.go) but against the fixed numeric
// slots L2's Add/Sub instructions are compiled to reference.
func RegisterArithmetic(r *Registry) (addNum, subNum, eqNum int) {
	addNum = r.Register("primitiveAdd", 2, CanFold|CanInline|CannotFail, func(args []any) Result {
		v, err := addNumeric(args[0], args[1])
		if err != nil {
			return Result{Kind: ResultFailure, Failure: err}
		}
		return Result{Kind: ResultSuccess, Value: v}
	})
	subNum = r.Register("primitiveSubtract", 2, CanFold|CanInline|CannotFail, func(args []any) Result {
		v, err := subNumeric(args[0], args[1])
		if err != nil {
			return Result{Kind: ResultFailure, Failure: err}
		}
		return Result{Kind: ResultSuccess, Value: v}
	})
	eqNum = r.Register("primitiveEquals", 2, CanFold|CannotFail, func(args []any) Result {
		return Result{Kind: ResultSuccess, Value: args[0] == args[1]}
	})
	return
}

func addNumeric(a, b any) (any, *diagnostic.Diagnostic) {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			return av + bv, nil
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av + bv, nil
		}
	}
	return nil, diagnostic.Runtime(diagnostic.CodeIncorrectArgumentType, "cannot add %T and %T", a, b)
}

func subNumeric(a, b any) (any, *diagnostic.Diagnostic) {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			return av - bv, nil
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av - bv, nil
		}
	}
	return nil, diagnostic.Runtime(diagnostic.CodeIncorrectArgumentType, "cannot subtract %T and %T", a, b)
}
