package booking

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers.
const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeForbidden    = "forbidden"
	CodeInternal     = "internal"
)

// Sentinels for errors.Is. A *BookingError matches the sentinel with the same code.
var (
	ErrInvalidInput = &BookingError{Code: CodeInvalidInput, Message: "invalid input"}
	ErrNotFound     = &BookingError{Code: CodeNotFound, Message: "not found"}
	ErrConflict     = &BookingError{Code: CodeConflict, Message: "conflict"}
	ErrForbidden    = &BookingError{Code: CodeForbidden, Message: "forbidden"}
	ErrInternal     = &BookingError{Code: CodeInternal, Message: "internal error"}
)

type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Code == e.Code
}

func newError(code, msg string, err error) error {
	return &BookingError{Code: code, Message: msg, Err: err}
}

func invalidInput(format string, args ...interface{}) error {
	return newError(CodeInvalidInput, fmt.Sprintf(format, args...), nil)
}

func notFound(msg string, err error) error {
	return newError(CodeNotFound, msg, err)
}

func conflict(msg string, err error) error {
	return newError(CodeConflict, msg, err)
}

// Code returns the code of the first *BookingError in err's chain, or CodeInternal.
func Code(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternal
}
