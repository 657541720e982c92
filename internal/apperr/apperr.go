// Package apperr defines the error kinds shared by the job core and its
// delivery layers.
package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation error")
	ErrTransient         = errors.New("transient failure")
)

// Error carries one of the kinds above plus the cause and the stack at the
// point it was raised.
type Error struct {
	Kind    error
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func (e *Error) StackTrace() []byte {
	if e == nil {
		return nil
	}
	return e.Stack
}

func New(kind error, message string, err error) *Error {
	var stack []byte
	if err != nil {
		var ge *goerrors.Error
		if errors.As(err, &ge) {
			stack = ge.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func NotFound(message string) *Error {
	return New(ErrNotFound, message, nil)
}

func InvalidTransition(message string) *Error {
	return New(ErrInvalidTransition, message, nil)
}

func Conflict(message string, err error) *Error {
	return New(ErrConflict, message, err)
}

func Validation(message string) *Error {
	return New(ErrValidation, message, nil)
}

// Transient wraps store or network failures the caller may retry.
// Errors that already carry a kind are returned unchanged.
func Transient(message string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return err
	}
	return New(ErrTransient, message, err)
}

// KindOf returns the kind sentinel carried by err, or nil.
func KindOf(err error) error {
	for _, k := range []error{ErrNotFound, ErrInvalidTransition, ErrConflict, ErrValidation, ErrTransient} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
