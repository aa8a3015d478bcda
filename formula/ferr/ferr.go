// Package ferr defines the error taxonomy for every build-time stage of
// formula evaluation: parsing, lowering/binding, and graph construction.
// Runtime evaluation errors do not use this package; per §7 of the design
// they collapse silently to value.None instead of surfacing as Go errors.
package ferr

import (
	"errors"
	"fmt"
)

// Stage identifies which build-time phase raised an error.
type Stage int

const (
	StageParse Stage = iota
	StageBind
	StageGraph
)

func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageBind:
		return "bind"
	case StageGraph:
		return "graph"
	default:
		return "unknown"
	}
}

// Kind is a specific error condition within a Stage.
type Kind string

// ParseError kinds (§7).
const (
	UnexpectedToken  Kind = "UnexpectedToken"
	MissingRParen    Kind = "MissingRParen"
	MissingArgument  Kind = "MissingArgument"
	InvalidNumber    Kind = "InvalidNumber"
	UnterminatedRef  Kind = "UnterminatedRef"
)

// BindError kinds (§7).
const (
	UnknownFunction  Kind = "UnknownFunction"
	UnknownConstant  Kind = "UnknownConstant"
	ArityMismatch    Kind = "ArityMismatch"
	UnresolvedRef    Kind = "UnresolvedRef"
	PureReturnedNone Kind = "PureReturnedNone"
	TypeMismatch     Kind = "TypeMismatch"
)

// GraphError kinds (§7).
const (
	CyclicReference Kind = "CyclicReference"
	EmptyRootSet    Kind = "EmptyRootSet"
	// InitFailed reports a stateful callable's build-time Init hook (§4.11)
	// returning an error; not named in §7 directly but classified as a
	// GraphError since it can only surface during graph construction.
	InitFailed Kind = "InitFailed"
)

// Position locates an error within source text. Line and Column are
// 1-indexed; Offset is the 0-indexed byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Line == 0 {
		return fmt.Sprintf("offset %d", p.Offset)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is the common error type for every build-time failure: it carries a
// Stage, a Kind, an optional source Position, a message, and optionally one
// wrapped cause. Is/Unwrap make it interoperate with the standard errors
// package so callers can test for a specific Kind with errors.Is.
type Error struct {
	Stage   Stage
	Kind    Kind
	Pos     Position
	HasPos  bool
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.HasPos {
		if e.cause != nil {
			return fmt.Sprintf("%s error at %s: %s: %s", e.Stage, e.Pos, e.Message, e.cause.Error())
		}
		return fmt.Sprintf("%s error at %s: %s", e.Stage, e.Pos, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s error: %s: %s", e.Stage, e.Message, e.cause.Error())
	}
	return fmt.Sprintf("%s error: %s", e.Stage, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to the standard errors package.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Kind. This lets
// callers write errors.Is(err, ferr.New(ferr.StageGraph, ferr.CyclicReference, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds an Error with no source position.
func New(stage Stage, kind Kind, message string) *Error {
	return &Error{Stage: stage, Kind: kind, Message: message}
}

// NewAt builds an Error located at pos.
func NewAt(stage Stage, kind Kind, pos Position, message string) *Error {
	return &Error{Stage: stage, Kind: kind, Pos: pos, HasPos: true, Message: message}
}

// Wrap builds an Error that wraps cause as its underlying reason.
func Wrap(stage Stage, kind Kind, message string, cause error) *Error {
	return &Error{Stage: stage, Kind: kind, Message: message, cause: cause}
}

// WrapAt builds an Error located at pos that wraps cause.
func WrapAt(stage Stage, kind Kind, pos Position, message string, cause error) *Error {
	return &Error{Stage: stage, Kind: kind, Pos: pos, HasPos: true, Message: message, cause: cause}
}
