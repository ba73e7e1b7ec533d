// Package domainerrors defines the typed error used across nipcheck.
//
// Every error that crosses a package boundary and is meant for a client carries
// a stable, machine-readable Code plus a human-readable Message. Transport
// adapters translate the Code into a status (see ToHTTPStatus) and never rely
// on error identity or message text.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	// CodeInputLength is returned when a guess pattern is not exactly 10 characters.
	CodeInputLength Code = "INPUT_LENGTH"
	// CodeMaxPlaceholders is returned when a guess pattern has too many wildcards.
	CodeMaxPlaceholders Code = "MAX_PLACEHOLDERS"

	CodeBadRequest  Code = "bad_request"
	CodeNotFound    Code = "not_found"
	CodeRateLimited Code = "rate_limited"
	CodeUnavailable Code = "service_unavailable"
	CodeInternal    Code = "internal_error"
)

// Error is a client-facing error with a code and message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that keeps cause available to errors.Is/As.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, New(CodeInputLength, ""))
// works without comparing messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the code of the first *Error in err's chain.
// Returns CodeInternal for any other error and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// IsClientError reports whether the error was caused by caller input.
func IsClientError(err error) bool {
	status := ToHTTPStatus(CodeOf(err))
	return status >= 400 && status < 500
}

// ToHTTPStatus maps a code to the HTTP status used by the API.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInputLength, CodeMaxPlaceholders, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
