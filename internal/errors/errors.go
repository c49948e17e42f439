package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a Studio error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrInvalidState      ErrorCode = "INVALID_STATE"       // 409
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS" // 409
	ErrConflict          ErrorCode = "CONFLICT"            // 409
	ErrPayloadTooLarge   ErrorCode = "PAYLOAD_TOO_LARGE"   // 413
	ErrRateLimited       ErrorCode = "RATE_LIMITED"        // 429
	ErrIOFailure         ErrorCode = "IO_FAILURE"          // 500
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// StudioError represents a structured error with code, status, and details.
type StudioError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *StudioError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StudioError {
	return &StudioError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewValidation creates a 400 error carrying per-field messages.
// Details["fields"] maps field name to its messages.
func NewValidation(fields map[string][]string) *StudioError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msg := "validation failed"
	if len(names) > 0 {
		msg = fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
	}
	return &StudioError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
		Details: map[string]any{"fields": fields},
	}
}

// NewFieldError is shorthand for a validation error on a single field.
func NewFieldError(field, msg string) *StudioError {
	return NewValidation(map[string][]string{field: {msg}})
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(resource, identifier string) *StudioError {
	return &StudioError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
		Details: map[string]any{"resource": resource, "identifier": identifier},
	}
}

// NewInvalidState creates a 409 error for an operation attempted on a record
// in the wrong lifecycle state.
func NewInvalidState(resource, state, msg string) *StudioError {
	return &StudioError{
		Code:    ErrInvalidState,
		Status:  409,
		Message: msg,
		Details: map[string]any{"resource": resource, "state": state},
	}
}

// NewNameAlreadyExists creates a 409 error for name collisions.
func NewNameAlreadyExists(resource, name string) *StudioError {
	return &StudioError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("%s with name %q already exists", resource, name),
		Details: map[string]any{"resource": resource, "name": name},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *StudioError {
	return &StudioError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewPayloadTooLarge creates a 413 error when an upload exceeds the size limit.
func NewPayloadTooLarge(max int64) *StudioError {
	return &StudioError{
		Code:    ErrPayloadTooLarge,
		Status:  413,
		Message: fmt.Sprintf("payload exceeds maximum size of %d bytes", max),
		Details: map[string]any{"max_bytes": max},
	}
}

// NewRateLimited creates a 429 error.
func NewRateLimited(rps float64) *StudioError {
	return &StudioError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: fmt.Sprintf("rate limit exceeded (%.0f requests/second)", rps),
	}
}

// NewIOFailure creates a 500 error for disk, encoding, or archive failures
// that escape to the caller.
func NewIOFailure(err error) *StudioError {
	msg := "i/o failure"
	if err != nil {
		msg = err.Error()
	}
	return &StudioError{
		Code:    ErrIOFailure,
		Status:  500,
		Message: msg,
		Details: map[string]any{"kind": string(KindOf(err))},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StudioError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StudioError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a StudioError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *StudioError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// FieldErrors returns the per-field messages of a validation error, or nil.
func FieldErrors(err error) map[string][]string {
	var sErr *StudioError
	if !stderrors.As(err, &sErr) || sErr.Details == nil {
		return nil
	}
	fields, _ := sErr.Details["fields"].(map[string][]string)
	return fields
}
