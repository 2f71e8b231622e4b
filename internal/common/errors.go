// Package common holds the input validation and error types shared by the
// editing core and the command layer.
package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure.
type ErrorKind string

const (
	// KindInvalidInput is malformed user input, caught before any file is touched.
	KindInvalidInput ErrorKind = "INVALID_INPUT"

	// KindIO is an unreadable or unwritable file, including the backup.
	KindIO ErrorKind = "IO"

	// KindServiceRestart is a failed daemon restart after the file was written.
	KindServiceRestart ErrorKind = "SERVICE_RESTART"
)

// Step names the stage of a run that failed.
type Step string

const (
	StepValidate Step = "validate"
	StepRead     Step = "read config"
	StepBackup   Step = "backup"
	StepWrite    Step = "write config"
	StepRestart  Step = "restart daemon"
	StepRestore  Step = "restore backup"
)

// Error is a classified failure of one step.
type Error struct {
	Kind    ErrorKind
	Step    Step
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindIO})
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewInvalidInputError creates an InvalidInput error.
func NewInvalidInputError(step Step, message string, cause error) *Error {
	return &Error{Kind: KindInvalidInput, Step: step, Message: message, Cause: cause}
}

// NewIOError creates an IOError.
func NewIOError(step Step, message string, cause error) *Error {
	return &Error{Kind: KindIO, Step: step, Message: message, Cause: cause}
}

// NewServiceRestartError creates a ServiceRestartError.
func NewServiceRestartError(message string, cause error) *Error {
	return &Error{Kind: KindServiceRestart, Step: StepRestart, Message: message, Cause: cause}
}

func kindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsInvalidInput reports whether err is an InvalidInput error.
func IsInvalidInput(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindInvalidInput
}

// IsIOError reports whether err is an IOError.
func IsIOError(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindIO
}

// IsServiceRestartError reports whether err is a ServiceRestartError.
func IsServiceRestartError(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindServiceRestart
}

// StepOf returns the step recorded in err, if any.
func StepOf(err error) (Step, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Step, true
	}
	return "", false
}
