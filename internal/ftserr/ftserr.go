// Package ftserr defines the error taxonomy shared by every FTS component.
//
// Components never panic or return a bare stdlib error for anything a
// caller needs to distinguish; they construct an *Error with a Kind from
// this package and let fmt.Errorf("...: %w", err) add context on the way
// up. The routine surface (internal/routines) is the only layer that knows
// how to turn a Kind back into a caller-facing status.
package ftserr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the engine's error categories.
type Kind string

const (
	ArgumentNull               Kind = "argument-null"
	NoSuchIndex                Kind = "no-such-index"
	IndexAlreadyExists         Kind = "index-already-exists"
	IndexNotBuilt              Kind = "index-not-built"
	NoSuchRelation             Kind = "no-such-relation"
	NoSuchField                Kind = "no-such-field"
	UnsupportedKeyType         Kind = "unsupported-key-type"
	CompositePKRequiresKey     Kind = "composite-pk-requires-explicit-key"
	NoSuchAnalyzer             Kind = "no-such-analyzer"
	BaseAnalyzerLacksStopWords Kind = "base-analyzer-lacks-stopwords"
	CannotModifySystemAnalyzer Kind = "cannot-modify-system-analyzer"
	MalformedKey               Kind = "malformed-key"
	FragmentSizeOutOfRange     Kind = "fragment-size-out-of-range"
	TermTooLong                Kind = "term-too-long"
	FragmentTooLong            Kind = "fragment-too-long"
	IndexBusy                  Kind = "index-busy"
	NoConfig                   Kind = "no-config"
	IndexLibraryError          Kind = "index-library-error"
)

// Error is the core's uniform error value. Message carries the
// human-readable text that propagates to the caller unchanged; Kind lets
// callers branch on category without parsing text.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind that wraps an underlying cause,
// typically one surfaced by the index library or the SQL driver.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Is reports whether err is an *Error of the given kind, unwrapping as
// needed so wrapped fmt.Errorf chains still classify correctly.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err is not (or does not wrap)
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
