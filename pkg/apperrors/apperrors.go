package apperrors

import (
	"errors"
	"fmt"
)

// The error taxonomy maps pipeline failures onto HTTP responses. Validation
// and conflict errors short-circuit before any mutation; downstream and
// internal errors always reach the caller as 500 with an audit trail.

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type ConflictError struct {
	Message    string
	ExistingID string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflict(existingID, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...), ExistingID: existingID}
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func NewUnauthorized(format string, args ...interface{}) *UnauthorizedError {
	return &UnauthorizedError{Message: fmt.Sprintf(format, args...)}
}

type DownstreamError struct {
	Message string
	Err     error
}

func (e *DownstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DownstreamError) Unwrap() error {
	return e.Err
}

func NewDownstream(err error, format string, args ...interface{}) *DownstreamError {
	return &DownstreamError{Message: fmt.Sprintf(format, args...), Err: err}
}

// AsConflict unwraps err as a ConflictError.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

// StatusCode maps a taxonomy error to its HTTP status. Anything unrecognized
// is an internal error.
func StatusCode(err error) int {
	var validation *ValidationError
	var conflict *ConflictError
	var notFound *NotFoundError
	var unauthorized *UnauthorizedError

	switch {
	case errors.As(err, &validation):
		return 400
	case errors.As(err, &unauthorized):
		return 401
	case errors.As(err, &notFound):
		return 404
	case errors.As(err, &conflict):
		return 409
	default:
		return 500
	}
}
