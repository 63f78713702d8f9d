// Package errors provides unified error handling with structured error codes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies failures so loop-level handling can decide between local
// recovery (substitute a blank frame, treat as empty text) and surfacing.
type Code string

const (
	CodeUnknown       Code = "UNKNOWN"
	CodeInternal      Code = "INTERNAL"
	CodeCaptureFailed Code = "CAPTURE_FAILED"
	CodeOCRFailed     Code = "OCR_FAILED"
	CodeInvalidImage  Code = "INVALID_IMAGE"
	CodeStoreFailed   Code = "STORE_FAILED"
	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeNotFound      Code = "NOT_FOUND"
)

// Recoverable codes are substituted locally by the scan loop instead of
// escalating to the error status.
var recoverable = map[Code]bool{
	CodeCaptureFailed: true,
	CodeOCRFailed:     true,
	CodeInvalidImage:  true,
}

// AppError is the base error type with structured code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// Recoverable reports whether the scan loop handles this error locally.
func (e *AppError) Recoverable() bool { return recoverable[e.Code] }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the code from any error, defaulting to CodeUnknown.
func CodeOf(err error) Code {
	var app *AppError
	if stderrors.As(err, &app) {
		return app.Code
	}
	return CodeUnknown
}

// IsRecoverable reports whether any error carries a recoverable code.
func IsRecoverable(err error) bool {
	var app *AppError
	if stderrors.As(err, &app) {
		return app.Recoverable()
	}
	return false
}
