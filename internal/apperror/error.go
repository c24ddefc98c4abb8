// Package apperror defines the typed error taxonomy shared by the quiz
// engine and the grading pipeline. Core components never return bare
// errors.New — every failure path returns one of these kinds so that the
// thin HTTP/WS layer can map it to a transport-specific status without the
// core knowing about HTTP at all.
package apperror

import (
	"errors"
	"fmt"
)

// Kind enumerates the error categories the core distinguishes.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindAuthz        Kind = "authz"
	KindPrecondition Kind = "precondition"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindTransient    Kind = "transient"
	KindParseErr     Kind = "parse_error"
	KindExhausted    Kind = "exhausted"
)

// Error is the single error type returned by every Store, LLMClient,
// QuizSessionEngine and GradingPipeline operation that can fail.
type Error struct {
	Kind    Kind
	Code    string // short machine-readable cause, e.g. "room_code_taken"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, apperror.NotFoundKind) style matching work by
// comparing kinds when the target carries no code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code != "" {
		return e.Kind == t.Kind && e.Code == t.Code
	}
	return e.Kind == t.Kind
}

func newf(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...interface{}) *Error {
	return newf(KindNotFound, code, format, args...)
}

func Authz(code, format string, args ...interface{}) *Error {
	return newf(KindAuthz, code, format, args...)
}

func Precondition(code, format string, args ...interface{}) *Error {
	return newf(KindPrecondition, code, format, args...)
}

func Conflict(code, format string, args ...interface{}) *Error {
	return newf(KindConflict, code, format, args...)
}

func Validation(code, format string, args ...interface{}) *Error {
	return newf(KindValidation, code, format, args...)
}

func Transient(code string, cause error) *Error {
	return &Error{Kind: KindTransient, Code: code, Message: "transient failure", Cause: cause}
}

func ParseErr(code string, cause error) *Error {
	return &Error{Kind: KindParseErr, Code: code, Message: "failed to parse LLM response", Cause: cause}
}

func Exhausted(code, format string, args ...interface{}) *Error {
	return newf(KindExhausted, code, format, args...)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Sentinel kind matchers for errors.Is(err, apperror.NotFoundKind) idioms.
var (
	NotFoundKind     = &Error{Kind: KindNotFound}
	AuthzKind        = &Error{Kind: KindAuthz}
	PreconditionKind = &Error{Kind: KindPrecondition}
	ConflictKind     = &Error{Kind: KindConflict}
	ValidationKind   = &Error{Kind: KindValidation}
	TransientKind    = &Error{Kind: KindTransient}
	ParseErrKind     = &Error{Kind: KindParseErr}
	ExhaustedKind    = &Error{Kind: KindExhausted}
)
