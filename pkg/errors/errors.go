// Package errors defines common error types for the tree builder.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown           = "UNKNOWN_ERROR"
	CodeFieldNotFound     = "FIELD_NOT_FOUND"
	CodeTypeMismatch      = "TYPE_MISMATCH"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeCircularReference = "CIRCULAR_REFERENCE"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeNotFound          = "NOT_FOUND"
	CodeParseError        = "PARSE_ERROR"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeStorageError      = "STORAGE_ERROR"
	CodeConfigError       = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances, usable as errors.Is targets.
var (
	ErrFieldNotFound     = New(CodeFieldNotFound, "field not found")
	ErrTypeMismatch      = New(CodeTypeMismatch, "type mismatch")
	ErrInvalidConfig     = New(CodeInvalidConfig, "invalid configuration")
	ErrCircularReference = New(CodeCircularReference, "circular reference")
	ErrInvalidInput      = New(CodeInvalidInput, "invalid input")
	ErrNotFound          = New(CodeNotFound, "resource not found")
	ErrParseError        = New(CodeParseError, "parse error")
	ErrDatabaseError     = New(CodeDatabaseError, "database error")
	ErrStorageError      = New(CodeStorageError, "storage error")
	ErrConfigError       = New(CodeConfigError, "configuration error")
)

// IsFieldNotFound checks if the error is a field resolution failure.
func IsFieldNotFound(err error) bool {
	return errors.Is(err, ErrFieldNotFound)
}

// IsTypeMismatch checks if the error is a type mismatch.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsInvalidConfig checks if the error is an invalid field configuration.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsCircularReference checks if the error reports a parent cycle.
func IsCircularReference(err error) bool {
	return errors.Is(err, ErrCircularReference)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
