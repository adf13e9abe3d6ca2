// Package fault defines the error codes the entrypoint reports to its host.
//
// Every core package returns *Error values so that a host can map a failed
// invocation to a stable Code without string matching. Layers may wrap an
// *Error with fmt.Errorf("...: %w", err); CodeOf and errors.Is see through
// the wrapping.
package fault

import (
	"errors"
	"fmt"
)

// Code categorizes invocation failures.
type Code string

const (
	// CodeCapacityExceeded indicates an encoded record is larger than its slot.
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"

	// CodeMalformed indicates slot bytes do not decode as a record.
	CodeMalformed Code = "MALFORMED"

	// CodeOverflow indicates a stat increment would exceed uint32.
	CodeOverflow Code = "OVERFLOW"

	// CodeUnknownOperation indicates an unmapped instruction selector.
	CodeUnknownOperation Code = "UNKNOWN_OPERATION"

	// CodeInvalidInstruction indicates an empty, truncated or oversized payload.
	CodeInvalidInstruction Code = "INVALID_INSTRUCTION"

	// CodeSlotNotFound indicates the payload references a slot index the host
	// did not supply.
	CodeSlotNotFound Code = "SLOT_NOT_FOUND"

	// CodeDuplicateSlot indicates the same slot was supplied twice.
	CodeDuplicateSlot Code = "DUPLICATE_SLOT"

	// CodePermissionDenied indicates a slot lacks the read or write flag.
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// CodeUnauthorized indicates the caller was rejected by the authorizer.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeInvalidArgument indicates an argument failed validation.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// Sentinels for errors.Is. They match any *Error with the same Code.
var (
	ErrCapacityExceeded   = &Error{Code: CodeCapacityExceeded}
	ErrMalformed          = &Error{Code: CodeMalformed}
	ErrOverflow           = &Error{Code: CodeOverflow}
	ErrUnknownOperation   = &Error{Code: CodeUnknownOperation}
	ErrInvalidInstruction = &Error{Code: CodeInvalidInstruction}
	ErrSlotNotFound       = &Error{Code: CodeSlotNotFound}
	ErrDuplicateSlot      = &Error{Code: CodeDuplicateSlot}
	ErrPermissionDenied   = &Error{Code: CodePermissionDenied}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument}
)

// Error is a coded invocation failure.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Slot identifies the affected slot, if any.
	Slot string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Slot != "" {
		msg = fmt.Sprintf("%s (slot=%s)", msg, e.Slot)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error around an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithSlot returns a copy of e annotated with a slot identifier.
func (e *Error) WithSlot(slot string) *Error {
	cp := *e
	cp.Slot = slot
	return &cp
}

// CodeOf returns the Code of the first *Error in err's chain.
// Returns "" for nil or for errors that carry no code.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
