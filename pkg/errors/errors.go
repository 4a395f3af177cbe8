package errors

import (
	"errors"
)

type Code string

// Codes the routing layer is expected to branch on. Each maps to a distinct
// outward response and is never collapsed into another.
const (
	CodeTokenInvalid      Code = "token_invalid"
	CodeTokenExpired      Code = "token_expired"
	CodeTokenRevoked      Code = "token_revoked"
	CodePrincipalNotFound Code = "principal_not_found"
	CodeWrongSecret       Code = "wrong_secret"
	CodeAccountInactive   Code = "account_inactive"
)

const (
	CodeUnknown          Code = "unknown"
	CodeStoreUnavailable Code = "store_unavailable"
)

var (
	ErrMissingService        = errors.New("authcore: service is required")
	ErrMissingPrincipalStore = errors.New("authcore: principal store is required")
	ErrMissingRegistry       = errors.New("authcore: token registry is required")
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.Message != "" {
		return e.Message
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCode(err error, code Code) bool {
	var typed *Error
	if !errors.As(err, &typed) {
		return false
	}
	return typed.Code == code
}

// CodeOf extracts the code from err, or CodeUnknown when err carries none.
func CodeOf(err error) Code {
	var typed *Error
	if !errors.As(err, &typed) {
		return CodeUnknown
	}
	return typed.Code
}

// IsTransient reports whether the failure is retryable by convention.
// Only store outages qualify; every other code is terminal for the call.
func IsTransient(err error) bool {
	return IsCode(err, CodeStoreUnavailable)
}
