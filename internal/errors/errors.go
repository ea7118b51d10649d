package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Eunoia error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrBuiltIn        ErrorCode = "BUILT_IN"        // 403
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"  // 409
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrStorage        ErrorCode = "STORAGE"         // 503
)

// EunoiaError represents a structured error with code, status, and details.
type EunoiaError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *EunoiaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *EunoiaError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *EunoiaError {
	return &EunoiaError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewBuiltIn creates a 403 error for operations that built-in categories or bundled words refuse.
func NewBuiltIn(what string) *EunoiaError {
	return &EunoiaError{
		Code:    ErrBuiltIn,
		Status:  403,
		Message: fmt.Sprintf("%s is built in and cannot be modified", what),
		Details: map[string]any{"target": what},
	}
}

// NewNotFound creates a 404 error for a missing category or word.
func NewNotFound(kind, identifier string) *EunoiaError {
	return &EunoiaError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for import paths that do not exist.
func NewFileNotFound(path string) *EunoiaError {
	return &EunoiaError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadyExists creates a 409 error for duplicate categories or words.
func NewAlreadyExists(kind, name string) *EunoiaError {
	return &EunoiaError{
		Code:    ErrAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("%s already exists: %q", kind, name),
		Details: map[string]any{"kind": kind, "name": name},
	}
}

// NewCancelled creates a 499 error when the caller's context ends mid-operation.
func NewCancelled(op string) *EunoiaError {
	return &EunoiaError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewStorage creates a 503 error for collaborator I/O failures.
// The caller may retry; persisted state is left as it was.
func NewStorage(op string, err error) *EunoiaError {
	msg := op + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", op, err)
	}
	return &EunoiaError{
		Code:    ErrStorage,
		Status:  503,
		Message: msg,
		Details: map[string]any{"op": op},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *EunoiaError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &EunoiaError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// WrapStorage returns err unchanged when it already carries a code, and wraps
// anything else as a STORAGE error for op. A nil err stays nil.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var eErr *EunoiaError
	if stderrors.As(err, &eErr) {
		return err
	}
	return NewStorage(op, err)
}

// Is checks if an error is (or wraps) a EunoiaError with the given code.
func Is(err error, code ErrorCode) bool {
	var eErr *EunoiaError
	if stderrors.As(err, &eErr) {
		return eErr.Code == code
	}
	return false
}
