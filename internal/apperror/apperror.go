// Package apperror holds the failure kinds services report to handlers.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindGeneric Kind = iota
	KindValidation
	KindUnknownEntity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnknownEntity:
		return "unknown entity"
	default:
		return "generic"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func UnknownEntity(format string, args ...any) *Error {
	return &Error{Kind: KindUnknownEntity, Message: fmt.Sprintf(format, args...)}
}

func Generic(format string, args ...any) *Error {
	return &Error{Kind: KindGeneric, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
// ok is false for errors that did not come from this package.
func KindOf(err error) (kind Kind, ok bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return KindGeneric, false
}

func IsUnknownEntity(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindUnknownEntity
}

func IsValidation(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindValidation
}
