package engine

import (
	"errors"
	"fmt"
)

// Error is returned by every failing engine operation.
//
// Errors are values: nothing in the engine panics on bad input, and a failed
// call leaves no partial mutation behind. Retrying an identical call fails
// identically because every operation is a deterministic function of engine
// state and inputs.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Replica identifies the replica involved, if any.
	Replica string

	// Event identifies the event involved, if any.
	Event string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInvalidID indicates an empty replica id.
	ErrCodeInvalidID ErrorCode = "INVALID_ID"

	// ErrCodeAlreadyRegistered indicates a duplicate replica registration.
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"

	// ErrCodeNotRegistered indicates an operation on an unknown replica.
	ErrCodeNotRegistered ErrorCode = "NOT_REGISTERED"

	// ErrCodeEventNotFound indicates a query on an unknown event id.
	ErrCodeEventNotFound ErrorCode = "EVENT_NOT_FOUND"
)

// ValidErrorCodes lists every ErrorCode.
var ValidErrorCodes = []ErrorCode{
	ErrCodeInvalidID,
	ErrCodeAlreadyRegistered,
	ErrCodeNotRegistered,
	ErrCodeEventNotFound,
}

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrInvalidID         = &Error{Code: ErrCodeInvalidID}
	ErrAlreadyRegistered = &Error{Code: ErrCodeAlreadyRegistered}
	ErrNotRegistered     = &Error{Code: ErrCodeNotRegistered}
	ErrEventNotFound     = &Error{Code: ErrCodeEventNotFound}
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Replica != "":
		return fmt.Sprintf("%s: %s (replica=%s)", e.Code, e.Message, e.Replica)
	case e.Event != "":
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.Event)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of an engine error, or "" if err is not one.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidationError returns true if err rejects an invalid replica id.
func IsValidationError(err error) bool {
	return CodeOf(err) == ErrCodeInvalidID
}

// IsAlreadyRegistered returns true if err rejects a duplicate registration.
func IsAlreadyRegistered(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyRegistered
}

// IsNotRegistered returns true if err names an unknown replica.
func IsNotRegistered(err error) bool {
	return CodeOf(err) == ErrCodeNotRegistered
}

// IsEventNotFound returns true if err names an unknown event.
func IsEventNotFound(err error) bool {
	return CodeOf(err) == ErrCodeEventNotFound
}

func newInvalidIDError() *Error {
	return &Error{
		Code:    ErrCodeInvalidID,
		Message: "replica id must not be empty",
	}
}

func newAlreadyRegisteredError(id string) *Error {
	return &Error{
		Code:    ErrCodeAlreadyRegistered,
		Message: "replica is already registered",
		Replica: id,
	}
}

func newNotRegisteredError(id string) *Error {
	return &Error{
		Code:    ErrCodeNotRegistered,
		Message: "replica is not registered",
		Replica: id,
	}
}

func newEventNotFoundError(id string) *Error {
	return &Error{
		Code:    ErrCodeEventNotFound,
		Message: "event not found",
		Event:   id,
	}
}
