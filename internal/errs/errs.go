// Package errs provides the coded error type shared by the rendering pipeline.
// A code classifies the failure (render, encode, cleanup, validation) so callers
// can react without string matching.
package errs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code represents an error code for categorization.
type Code string

const (
	CodeInternal   Code = "INTERNAL_ERROR"
	CodeValidation Code = "VALIDATION_ERROR"
	CodeRender     Code = "RENDER_ERROR"
	CodeEncode     Code = "ENCODE_ERROR"
	CodeCleanup    Code = "CLEANUP_ERROR"
	CodeCanceled   Code = "CANCELED"
)

// Sentinels for errors.Is matching by code.
var (
	ErrValidation = &Error{Code: CodeValidation}
	ErrRender     = &Error{Code: CodeRender}
	ErrEncode     = &Error{Code: CodeEncode}
	ErrCleanup    = &Error{Code: CodeCleanup}
	ErrCanceled   = &Error{Code: CodeCanceled}
)

// Error is a pipeline error with a code, the failing operation and the cause.
type Error struct {
	// Code is the error code for categorization.
	Code Code
	// Op is the operation that failed (e.g., "renderer.frame").
	Op string
	// Message is the human-readable error message.
	Message string
	// Err is the underlying error.
	Err error
	// Fields contains additional context fields.
	Fields map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	if e.Code != "" {
		b.WriteString("[")
		b.WriteString(string(e.Code))
		b.WriteString("] ")
	}

	b.WriteString(e.Message)

	if e.Err != nil {
		if e.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithField adds a field to the error.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return 400
	case CodeRender:
		return 422
	case CodeCanceled:
		return 499
	case CodeEncode:
		return 502
	default:
		return 500
	}
}

// New creates a new error with the given code and message.
func New(code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Newf creates a new error with a formatted message.
func Newf(code Code, op, format string, args ...any) *Error {
	return New(code, op, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code. A nil err yields nil.
func Wrap(err error, code Code, op, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// Validation creates a validation error.
func Validation(op, format string, args ...any) *Error {
	return Newf(CodeValidation, op, format, args...)
}

// Render wraps a frame rasterization failure.
func Render(err error, op string, scene, frame int) *Error {
	if err == nil {
		return nil
	}
	e := Wrap(err, CodeRender, op, fmt.Sprintf("scene %d frame %d", scene, frame))
	return e.WithField("scene", scene).WithField("frame", frame)
}

// Encode wraps an encoder failure.
func Encode(err error, op, message string) *Error {
	return Wrap(err, CodeEncode, op, message)
}

// Cleanup wraps a failure to delete a temporary file.
func Cleanup(err error, path string) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, CodeCleanup, "cleanup", path).WithField("path", path)
}

// GetCode extracts the error code from an error. Context cancellation maps to
// CodeCanceled even when it was not wrapped.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if IsContextError(err) {
		return CodeCanceled
	}
	return CodeInternal
}

// GetHTTPStatus extracts the HTTP status from an error.
func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	if IsContextError(err) {
		return ErrCanceled.HTTPStatus()
	}
	return 500
}

// IsContextError reports whether err stems from context cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
