package services

import (
	"errors"
	"fmt"
)

// ErrorType is the machine-readable error_type reported to clients.
// The set is closed: the error mapper knows a status code for every value.
type ErrorType string

const (
	ErrorTypeInvalidTenant ErrorType = "invalid_tenant"
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeNotFound      ErrorType = "item_not_found"
	ErrorTypeRequest       ErrorType = "request_error"
	ErrorTypeUnexpected    ErrorType = "unexpected_error"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same Type.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Constructors for the five error kinds.

// NewInvalidTenantError reports a blank or non-allowlisted tenant.
func NewInvalidTenantError(message string) *DomainError {
	return NewDomainError(ErrorTypeInvalidTenant, message, nil)
}

// NewValidationError reports a business-rule violation on request data.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, nil)
}

// NewNotFoundError reports a record missing for the requesting tenant.
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(ErrorTypeNotFound, message, nil)
}

// NewRequestError reports a malformed request (bad JSON, bad path param).
func NewRequestError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeRequest, message, err)
}

// WrapUnexpected wraps an error as an unexpected error. The message is logged,
// never returned to clients.
func WrapUnexpected(message string, err error) error {
	return NewDomainError(ErrorTypeUnexpected, message, err)
}

// Error type checking helper functions

// IsInvalidTenantError checks if an error is an invalid tenant error
func IsInvalidTenantError(err error) bool {
	return GetErrorType(err) == ErrorTypeInvalidTenant
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsRequestError checks if an error is a malformed request error
func IsRequestError(err error) bool {
	return GetErrorType(err) == ErrorTypeRequest
}

// IsUnexpectedError checks if an error is an unexpected error
func IsUnexpectedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnexpected
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the client-facing message of a domain error, or empty string
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}
