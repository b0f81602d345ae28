// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeSchemaMismatch indicates a parameter, schema or encoder name/count mismatch
	TypeSchemaMismatch Type = "SCHEMA_MISMATCH"

	// TypeDomain indicates a value outside its declared domain
	TypeDomain Type = "DOMAIN_ERROR"

	// TypeEncoding indicates a malformed or unsatisfiable encoder rule
	TypeEncoding Type = "ENCODING_ERROR"

	// TypeRecordShape indicates a trajectory line with the wrong field layout
	TypeRecordShape Type = "RECORD_SHAPE_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInput indicates an input error (missing files, unreadable data)
	TypeInput Type = "INPUT_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType reports whether err, or any error it wraps, is of type t.
// The outermost typed error in the chain decides.
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the type of the outermost typed error in the chain, or
// TypeInternal for foreign errors.
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// SchemaMismatch creates a schema mismatch error
func SchemaMismatch(format string, args ...interface{}) *Error {
	return Newf(TypeSchemaMismatch, format, args...)
}

// Domain creates a domain error
func Domain(format string, args ...interface{}) *Error {
	return Newf(TypeDomain, format, args...)
}

// Encoding creates an encoding error
func Encoding(format string, args ...interface{}) *Error {
	return Newf(TypeEncoding, format, args...)
}

// RecordShape creates a record shape error
func RecordShape(format string, args ...interface{}) *Error {
	return Newf(TypeRecordShape, format, args...)
}

// Config creates a configuration error
func Config(format string, args ...interface{}) *Error {
	return Newf(TypeConfig, format, args...)
}

// Input creates an input error
func Input(message string, cause error) *Error {
	return Wrap(TypeInput, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
