package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies workflow failures; handlers map each kind to one status code.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindPermission
	KindDuplicate
	KindNotFound
	KindAuthentication
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	}
	return "unknown"
}

// Error is the only error type services return on purpose. Anything else is a 500.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages (validation, duplicate).
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "; %s: %s", k, strings.Join(e.Fields[k], " "))
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindPermission, Message: msg} }

func Duplicate(msg string) *Error { return &Error{Kind: KindDuplicate, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Unauthenticated(msg string) *Error { return &Error{Kind: KindAuthentication, Message: msg} }

// WithField attaches a field message and returns e.
func (e *Error) WithField(field, msg string) *Error {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

// Wrap records the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// FieldErrors accumulates validation messages before failing once.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Err returns nil when nothing was added.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "Invalid input.", Fields: f}
}

const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgNoPermission     = "You do not have permission to perform this action."
)

// denyFor is Unauthenticated for anonymous actors and Forbidden otherwise.
func denyFor(anonymous bool, msg string) *Error {
	if anonymous {
		return Unauthenticated(msgNotAuthenticated)
	}
	if msg == "" {
		msg = msgNoPermission
	}
	return Forbidden(msg)
}
