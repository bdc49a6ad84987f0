// Package errors holds the failures can-monitor reports to the user and the
// exit status each one maps to.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a failure.
type Code string

const (
	// ErrConfig covers bad flags, environment values and .env files.
	ErrConfig Code = "CONFIG"
	// ErrSource covers frame sources that cannot be opened or that fault.
	ErrSource Code = "SOURCE"
	// ErrRecorder covers capture files and database recorders.
	ErrRecorder Code = "RECORDER"
)

// Exit statuses. Usage covers configuration mistakes and rejected command
// lines, Failure everything that went wrong at run time.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Error is printed as a headline, then the cause and a suggestion, each
// indented on its own paragraph.
type Error struct {
	Code       Code
	Message    string
	Suggestion string
	Cause      error
}

// New creates an error without an underlying cause.
func New(code Code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

// WrapWithCode attaches message and suggestion to cause.
func WrapWithCode(cause error, code Code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion, Cause: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s\n", e.Message)

	var details []string
	if e.Cause != nil {
		details = append(details, e.Cause.Error())
	}
	if e.Suggestion != "" {
		details = append(details, e.Suggestion)
	}
	for _, d := range details {
		fmt.Fprintf(&b, "\n  %s\n", d)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err or anything it wraps is an *Error with code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// ExitStatus maps err to a process exit status. Errors that are not an
// *Error come from command-line parsing and count as usage errors.
func ExitStatus(err error) int {
	if err == nil {
		return ExitOK
	}
	if IsCode(err, ErrSource) || IsCode(err, ErrRecorder) {
		return ExitFailure
	}
	return ExitUsage
}
