// Package nebulaerrors provides structured errors for the connector. Every error
// carries a category (ErrorType), a human-readable message, an optional cause and
// key-value details, plus the call stack captured where it was created.
//
// # Basic Usage
//
//	// Create a new error
//	err := nebulaerrors.New(nebulaerrors.ErrorTypeConfig, "page_size must be positive")
//
//	// Wrap a client failure and attach context
//	if err := client.Ping(ctx); err != nil {
//	    return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConnection, "ping failed").
//	        WithDetail("host", cfg.Host)
//	}
//
// # Error Types
//
// The category drives how callers react: check reports connection errors as a
// failed status, discovery aborts on capability errors, and read surfaces query
// errors to the pipeline. IsType and IsRetryable inspect the whole chain through
// errors.As, so wrapping never hides the category of the outermost structured error.
//
// # Thread Safety
//
// Error instances are not safe for concurrent modification. Finish adding
// details before sharing an error across goroutines.
package nebulaerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of an error.
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents resource not found errors
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeConnection represents connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeAuthentication represents authentication errors
	ErrorTypeAuthentication ErrorType = "authentication"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents data decoding and processing errors
	ErrorTypeData ErrorType = "data"
	// ErrorTypeCapability represents unsupported features or data types
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeQuery represents failed requests against the search engine
	ErrorTypeQuery ErrorType = "query"
)

// Error is a structured error with category, cause and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface, returning "<type>: <message>[: <cause>]".
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error so errors.Is and errors.As see the chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
//
// Example:
//
//	err := nebulaerrors.New(nebulaerrors.ErrorTypeQuery, "scroll failed").
//	    WithDetail("index", "orders").
//	    WithDetail("status", 404)
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, capturing the call
// stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving it as the
// cause. If err is already a structured Error its stack is reused. Wrap returns
// nil for a nil err.
//
// Example:
//
//	res, err := client.Search(ctx, index, size, keepAlive)
//	if err != nil {
//	    return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeQuery, "initial search failed").
//	        WithDetail("index", index)
//	}
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable reports whether the outermost structured error in the chain has a
// transient category (timeout or connection). The connector itself never
// retries; the classification is exposed for the surrounding pipeline.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeConnection:
		return true
	default:
		return false
	}
}

// IsType checks if the outermost structured error in the chain is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the category of the outermost structured error, or
// ErrorTypeInternal for plain errors. Metrics use it as a label value.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack captures up to 32 frames of the current call stack, skipping
// the given number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
