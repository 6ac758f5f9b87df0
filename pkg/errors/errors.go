package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"
	ErrPrivilege      ErrorCode = "PRIVILEGE"
	ErrUserDeclined   ErrorCode = "USER_DECLINED"

	// Lock errors
	ErrLockHeld ErrorCode = "LOCK_HELD"
	ErrLockIO   ErrorCode = "LOCK_IO"

	// Configuration errors
	ErrConfigLoad     ErrorCode = "CONFIG_LOAD"
	ErrConfigParse    ErrorCode = "CONFIG_PARSE"
	ErrConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrMirrorsInvalid ErrorCode = "MIRRORS_INVALID"

	// Repository errors
	ErrFetch        ErrorCode = "FETCH"
	ErrHashMismatch ErrorCode = "HASH_MISMATCH"
	ErrSignature    ErrorCode = "SIGNATURE"
	ErrIndex        ErrorCode = "INDEX"

	// Package errors
	ErrPackageInvalid      ErrorCode = "PACKAGE_INVALID"
	ErrDescriptorInvalid   ErrorCode = "DESCRIPTOR_INVALID"
	ErrPackageNotInstalled ErrorCode = "PACKAGE_NOT_INSTALLED"
	ErrPackageNotFound     ErrorCode = "PACKAGE_NOT_FOUND"
	ErrDependencyVeto      ErrorCode = "DEPENDENCY_VETO"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileRemove ErrorCode = "FILE_REMOVE"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
	ErrExtract    ErrorCode = "EXTRACT"
	ErrDatabase   ErrorCode = "DATABASE"
)

// BulgeError represents a structured error with code and details
type BulgeError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *BulgeError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *BulgeError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *BulgeError) Is(target error) bool {
	var targetErr *BulgeError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new BulgeError with the given code and message
func New(code ErrorCode, message string) *BulgeError {
	return &BulgeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new BulgeError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BulgeError {
	return &BulgeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a BulgeError
func Wrap(err error, code ErrorCode, message string) *BulgeError {
	if err == nil {
		return nil
	}
	return &BulgeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *BulgeError {
	if err == nil {
		return nil
	}
	return &BulgeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *BulgeError) WithDetail(key string, value interface{}) *BulgeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var bulgeErr *BulgeError
	if errors.As(err, &bulgeErr) {
		return bulgeErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a BulgeError
func GetErrorCode(err error) ErrorCode {
	var bulgeErr *BulgeError
	if errors.As(err, &bulgeErr) {
		return bulgeErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a BulgeError
func GetErrorDetails(err error) map[string]interface{} {
	var bulgeErr *BulgeError
	if errors.As(err, &bulgeErr) {
		return bulgeErr.Details
	}
	return nil
}

// Declined is the error returned when the user answers a confirmation
// prompt negatively.
func Declined(what string) *BulgeError {
	return Newf(ErrUserDeclined, "%s declined by user", what).WithDetail("operation", what)
}
