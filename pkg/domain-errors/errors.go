// Package domainerrors provides the code-based error type used across
// services and handlers. Codes classify failures for callers; sentinel
// errors for infrastructure facts live in pkg/platform/sentinel.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure. Every error returned from a service
// entry point carries exactly one code.
type Code string

const (
	// CodeValidation covers malformed or missing required input fields.
	CodeValidation Code = "validation"

	// CodeBadRequest covers transport-level decoding failures.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound covers unknown claim ids and absent records.
	CodeNotFound Code = "not_found"

	// CodeUnauthorized covers callers that are not the required principal
	// for an operation (owner, or bound employer).
	CodeUnauthorized Code = "unauthorized"

	// CodeInvalidState covers operations that are not legal in the claim's
	// current attestation or employer status.
	CodeInvalidState Code = "invalid_state"

	// CodeConflict covers first-writer-wins violations: an email already
	// bound to an employer address, or a reentrant mutation on a claim
	// whose transaction is still in flight.
	CodeConflict Code = "conflict"

	// CodeCollaborator covers attestation-signer calls that failed or
	// returned a zero credential identifier.
	CodeCollaborator Code = "collaborator_failure"

	// CodeTimeout covers operations aborted by context cancellation.
	CodeTimeout Code = "timeout"

	// CodeInternal covers unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is the concrete domain error. Services construct it via New or Wrap.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error while keeping it
// reachable through errors.Is/As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
