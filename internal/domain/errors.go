package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrConvergence         = errors.New("solver did not converge")
	ErrNotFound            = errors.New("not found")
	ErrExternalUnavailable = errors.New("external data unavailable")
	ErrAlreadyExists       = errors.New("already exists")
	ErrRateLimited         = errors.New("rate limited")
	ErrLockHeld            = errors.New("lock already held")
)

// Kind classifies an Error so callers can branch without parsing messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConvergence
	KindNotFound
	KindExternalUnavailable
	KindConflict
	KindRateLimited
)

var kindNames = [...]string{
	KindInternal:            "internal",
	KindValidation:          "validation",
	KindConvergence:         "convergence",
	KindNotFound:            "not_found",
	KindExternalUnavailable: "external_unavailable",
	KindConflict:            "conflict",
	KindRateLimited:         "rate_limited",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "internal"
	}
	return kindNames[k]
}

// sentinel returns the package-level error matched by errors.Is for k.
func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConvergence:
		return ErrConvergence
	case KindNotFound:
		return ErrNotFound
	case KindExternalUnavailable:
		return ErrExternalUnavailable
	case KindConflict:
		return ErrAlreadyExists
	case KindRateLimited:
		return ErrRateLimited
	default:
		return nil
	}
}

// Error is the structured error carried across package boundaries. Field and
// Value name the offending input when there is one.
type Error struct {
	Kind    Kind
	Field   string
	Value   any
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
		if e.Value != nil {
			fmt.Fprintf(&b, "=%v", e.Value)
		}
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is works
// against either.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Validation reports an out-of-range or missing input.
func Validation(field string, value any, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Value: value, Message: msg}
}

// Convergence reports a numerical solver that ran out of iterations.
func Convergence(field string, value any, msg string) *Error {
	return &Error{Kind: KindConvergence, Field: field, Value: value, Message: msg}
}

// NotFound reports an unknown identifier.
func NotFound(field string, value any) *Error {
	return &Error{Kind: KindNotFound, Field: field, Value: value, Message: "not found"}
}

// Unavailable reports an external lookup that failed.
func Unavailable(source string, cause error) *Error {
	return &Error{Kind: KindExternalUnavailable, Field: source, Message: "lookup failed", Err: cause}
}

// KindOf returns the Kind of err, falling back to sentinel matching for errors
// that were not built with this package's constructors.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConvergence):
		return KindConvergence
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExternalUnavailable):
		return KindExternalUnavailable
	case errors.Is(err, ErrAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	}
	return KindInternal
}
