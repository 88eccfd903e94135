package shared

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure category at the service boundary. Flows
// branch on codes, never on backend message text.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeInvalidCredentials ErrorCode = "invalid_credentials"
	CodeUserNotFound       ErrorCode = "user_not_found"
	CodeAccountInactive    ErrorCode = "account_inactive"
	CodeEmailExists        ErrorCode = "email_exists"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeNetworkFailure     ErrorCode = "network_failure"
	CodeSenderIdentity     ErrorCode = "sender_identity"
	CodeTokenInvalid       ErrorCode = "token_invalid"
	CodeTokenExpired       ErrorCode = "token_expired"
	CodeNotFound           ErrorCode = "not_found"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeConflict           ErrorCode = "conflict"
	CodeInternal           ErrorCode = "internal"
)

// DomainError is the error type every flow returns to the HTTP layer. Field
// is set for validation failures that belong to a single form field.
type DomainError struct {
	Code    ErrorCode
	Field   string
	Message string
	cause   error
}

// Error implements error.
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *DomainError) Unwrap() error { return e.cause }

// E constructs a DomainError without a field.
func E(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// EF constructs a field-level validation error.
func EF(code ErrorCode, field, message string) *DomainError {
	return &DomainError{Code: code, Field: field, Message: message}
}

// Wrap attaches a cause to a DomainError.
func Wrap(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the error code, defaulting to CodeInternal.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Sentinels kept for errors.Is checks in repositories.
var (
	ErrNotFound = E(CodeNotFound, "not found")
)
