// Package errkind provides the tagged error kinds spec §7 requires: every
// core operation returns a success-or-error Result, never panics on a
// normal path, and every error carries a Kind the engine can switch on to
// decide whether to log-and-continue or shut down.
package errkind

import "fmt"

// Kind tags the origin/policy of an error per spec §7's table.
type Kind string

const (
	InvalidFormat          Kind = "invalid_format"
	EmptyInput             Kind = "empty_input"
	InvalidState           Kind = "invalid_state"
	IllegalState           Kind = "illegal_state"
	ValidationFailed       Kind = "validation_failed"
	RepositoryError        Kind = "repository_error"
	CommunicationFailed    Kind = "communication_failed"
	CommandExecutionFailed Kind = "command_execution_failed"
	BusinessRuleViolation  Kind = "business_rule_violation"
	CancellationRequested  Kind = "cancellation_requested"
	RuntimeLimitExceeded   Kind = "runtime_limit_exceeded"
	UnexpectedError        Kind = "unexpected_error"
)

// Error is a human-readable message tagged with a Kind, optionally
// wrapping an underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// New builds a tagged Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds a tagged Error around an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	} else {
		return false
	}
	return e.Kind == kind
}
