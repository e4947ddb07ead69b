// Package diagnostic implements the three error surfaces of the runtime:
// numeric runtime failure codes bound to failure variables, unrecoverable
// internal invariant breaches that terminate a fiber, and compile-time
// parse rejections that abandon a single alternative.
package diagnostic

import (
	"fmt"
	"strings"
)

// Code is a numeric error code surfaced to interpreted code as a small
// integer, per the catalog in spec §6.
type Code int

const (
	CodeNone Code = iota
	CodeInvalidHandle
	CodeIOError
	CodePermissionDenied
	CodeIncorrectArgumentType
	CodeIncorrectNumberOfArguments
	CodeSerializationFailed
	CodeInvalidStatements
	CodeLoadingIsOver
	CodeMacroPrefixFunctionArgumentMustBeAParseNode
	CodeMacroPrefixFunctionsMustReturnTop
	CodeMacroArgumentMustBeAParseNode
	CodeMacroMustReturnAParseNode
	CodeRedefinedWithSameArgumentTypes
	CodeSpecialAtom
	CodeUntimelyParseAcceptance
	CodeAmbiguousName
	CodeNoMethod
	CodeNoMethodDefinition
	CodeAmbiguousMethodDefinition
	CodeAbstractMethodDefinition
	CodeForwardMethodDefinition
	CodeWrongKindOfType
	CodeVariableGetException
	CodeVariableSetException
	CodeOperationNotSupported
)

var codeNames = map[Code]string{
	CodeNone:                       "none",
	CodeInvalidHandle:              "invalid-handle",
	CodeIOError:                    "io-error",
	CodePermissionDenied:           "permission-denied",
	CodeIncorrectArgumentType:      "incorrect-argument-type",
	CodeIncorrectNumberOfArguments: "incorrect-number-of-arguments",
	CodeSerializationFailed:        "serialization-failed",
	CodeInvalidStatements:          "invalid-statements",
	CodeLoadingIsOver:              "loading-is-over",
	CodeMacroPrefixFunctionArgumentMustBeAParseNode: "macro-prefix-function-argument-must-be-a-parse-node",
	CodeMacroPrefixFunctionsMustReturnTop:           "macro-prefix-functions-must-return-top",
	CodeMacroArgumentMustBeAParseNode:               "macro-argument-must-be-a-parse-node",
	CodeMacroMustReturnAParseNode:                   "macro-must-return-a-parse-node",
	CodeRedefinedWithSameArgumentTypes:              "redefined-with-same-argument-types",
	CodeSpecialAtom:                                 "special-atom",
	CodeUntimelyParseAcceptance:                     "untimely-parse-acceptance",
	CodeAmbiguousName:                               "ambiguous-name",
	CodeNoMethod:                                    "no-method",
	CodeNoMethodDefinition:                          "no-method-definition",
	CodeAmbiguousMethodDefinition:                   "ambiguous-method-definition",
	CodeAbstractMethodDefinition:                    "abstract-method-definition",
	CodeForwardMethodDefinition:                     "forward-method-definition",
	CodeWrongKindOfType:                             "wrong-kind-of-type",
	CodeVariableGetException:                        "variable-get-exception",
	CodeVariableSetException:                        "variable-set-exception",
	CodeOperationNotSupported:                        "operation-not-supported",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Severity distinguishes the three error surfaces of spec §7.
type Severity int

const (
	// SeverityRuntime is a recoverable failure bound to a failure variable.
	SeverityRuntime Severity = iota
	// SeverityInternal is an unrecoverable invariant breach; terminates the
	// owning fiber and never unwinds into other fibers.
	SeverityInternal
	// SeverityParseRejection abandons the in-progress parse alternative.
	SeverityParseRejection
)

// Frame is one entry of a captured continuation chain, used purely for
// diagnostics — it is not the continuation itself (see package continuation).
type Frame struct {
	Function string
	PC       int
}

// Diagnostic is the uniform error value threaded through the runtime.
type Diagnostic struct {
	Severity  Severity
	Code      Code
	Message   string
	Frames    []Frame
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", d.Code, d.Message)
	for _, f := range d.Frames {
		fmt.Fprintf(&b, "\n  at %s (pc=%d)", f.Function, f.PC)
	}
	return b.String()
}

// Runtime builds a recoverable runtime failure.
func Runtime(code Code, format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: SeverityRuntime, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internal builds an unrecoverable internal invariant breach.
func Internal(format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: SeverityInternal, Code: CodeNone, Message: fmt.Sprintf(format, args...)}
}

// ParseRejection builds a compile-time semantic-restriction rejection.
func ParseRejection(format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: SeverityParseRejection, Code: CodeNone, Message: fmt.Sprintf(format, args...)}
}

// WithFrame appends a call-stack frame, innermost first, and returns the
// receiver for chaining — mirrors the teacher's AddStackFrame builder.
func (d *Diagnostic) WithFrame(function string, pc int) *Diagnostic {
	d.Frames = append(d.Frames, Frame{Function: function, PC: pc})
	return d
}
