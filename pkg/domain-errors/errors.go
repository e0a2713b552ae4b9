// Package domainerrors defines coded domain errors. Services return these so
// transports can translate failures into consistent responses without string
// matching. Stores return pkg/platform/sentinel errors instead; services
// translate sentinel facts into coded errors at the boundary.
//
// Import as dErrors:
//
//	dErrors "craneguard/pkg/domain-errors"
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for callers and transports.
type Code string

const (
	CodeInternal               Code = "internal"
	CodeBadRequest             Code = "bad_request"
	CodeValidation             Code = "validation"
	CodeInvalidInput           Code = "invalid_input"
	CodeNotFound               Code = "not_found"
	CodeDuplicateID            Code = "duplicate_id"
	CodeInvalidTransition      Code = "invalid_transition"
	CodeConcurrentModification Code = "concurrent_modification"
	CodeScoringFailed          Code = "scoring_failed"
	CodeInvariantViolation     Code = "invariant_violation"
	CodeUnauthorized           Code = "unauthorized"
	CodeTimeout                Code = "timeout"
	CodeUnavailable            Code = "unavailable"
)

// Error carries a code, a human-readable message, and an optional cause.
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

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.Err
		if err == nil {
			return false
		}
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// ToHTTPStatus maps a code to an HTTP status for the JSON error envelope.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateID, CodeInvalidTransition, CodeConcurrentModification:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeScoringFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
