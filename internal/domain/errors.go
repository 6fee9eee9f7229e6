package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies every negative outcome of a transform.
type Kind int

const (
	KindUnknown Kind = iota
	KindCorruptInput
	KindUnsupportedFormat
	KindDimensionMismatch
	KindCompressionInfeasible
	KindTimeout
	KindInternalDecode
	KindCanceled
	KindInvalidRequirement
	KindConstraintViolation
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCorruptInput:
		return "CorruptInput"
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindDimensionMismatch:
		return "DimensionMismatch"
	case KindCompressionInfeasible:
		return "CompressionInfeasible"
	case KindTimeout:
		return "Timeout"
	case KindInternalDecode:
		return "InternalDecodeError"
	case KindCanceled:
		return "Canceled"
	case KindInvalidRequirement:
		return "InvalidRequirement"
	case KindConstraintViolation:
		return "ConstraintViolation"
	default:
		return "Unknown"
	}
}

// Constraint names the part of a requirement a file violates.
type Constraint string

const (
	ConstraintNone      Constraint = ""
	ConstraintFormat    Constraint = "format"
	ConstraintSize      Constraint = "size"
	ConstraintDimension Constraint = "dimension"
)

// Error is the typed error returned by every stage of the engine.
type Error struct {
	Kind       Kind
	Op         string
	Constraint Constraint
	Detail     string
	// Attempts is the diagnostic trail accumulated up to the failure.
	Attempts []Attempt
	Err      error
}

// Sentinels for errors.Is. Only Kind is compared.
var (
	ErrCorruptInput          = &Error{Kind: KindCorruptInput}
	ErrUnsupportedFormat     = &Error{Kind: KindUnsupportedFormat}
	ErrDimensionMismatch     = &Error{Kind: KindDimensionMismatch}
	ErrCompressionInfeasible = &Error{Kind: KindCompressionInfeasible}
	ErrTimeout               = &Error{Kind: KindTimeout}
	ErrInternalDecode        = &Error{Kind: KindInternalDecode}
	ErrCanceled              = &Error{Kind: KindCanceled}
	ErrInvalidRequirement    = &Error{Kind: KindInvalidRequirement}
	ErrConstraintViolation   = &Error{Kind: KindConstraintViolation}
)

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Constraint != ConstraintNone {
		fmt.Fprintf(&b, " [%s]", e.Constraint)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if n := len(e.Attempts); n > 0 {
		fmt.Fprintf(&b, " (%d attempts)", n)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds an *Error wrapping err.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error with a formatted detail message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// AttemptsOf returns the attempts log carried by err, if any.
func AttemptsOf(err error) []Attempt {
	var e *Error
	if errors.As(err, &e) {
		return e.Attempts
	}
	return nil
}
