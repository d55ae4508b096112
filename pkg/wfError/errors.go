// Package wfError defines the sentinel error kinds the engine surfaces to
// callers of Runnable.Run, each carrying the offending node id or document
// URL where one is available.
package wfError

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories in spec §7.
type Kind string

const (
	KindMalformedDocument  Kind = "MalformedDocument"
	KindUnknownClass       Kind = "UnknownClass"
	KindCycleDetected      Kind = "CycleDetected"
	KindScatterAmbiguous   Kind = "ScatterAmbiguous"
	KindUnderNested        Kind = "UnderNested"
	KindScatterUnsupported Kind = "ScatterUnsupported"
	KindProcessFailed      Kind = "ProcessFailed"
	KindExpressionFailure  Kind = "ExpressionFailure"
)

// Error is the concrete error type for all engine failures. Doc is the
// offending document URL; Node, where one is known, is the offending
// node/port id.
type Error struct {
	Kind Kind
	Doc  string
	Node string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	loc := e.Doc
	if e.Node != "" {
		if loc != "" {
			loc += "#"
		}
		loc += e.Node
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, loc, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is match any target *Error of the same Kind (e.g.
// errors.Is(err, wfError.New(wfError.KindX, "", "", ""))), since Kind
// values aren't themselves errors.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, doc, node, msg string) *Error {
	return &Error{Kind: kind, Doc: doc, Node: node, Msg: msg}
}

// Wrap builds an *Error that wraps an underlying cause (e.g. the
// sandbox's diagnostic text, or the process's exit error).
func Wrap(kind Kind, doc, node, msg string, cause error) *Error {
	return &Error{Kind: kind, Doc: doc, Node: node, Msg: msg, Err: cause}
}

// Of reports whether err is a wfError.Error of the given Kind.
func Of(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
