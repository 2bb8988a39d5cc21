// internal/services/errors.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorCode classifies every failure the engine can surface. Handlers map
// codes to HTTP statuses; the codes themselves are transport-agnostic.
type ErrorCode string

const (
	CodeValidation  ErrorCode = "validation"
	CodeForbidden   ErrorCode = "forbidden"
	CodeNotFound    ErrorCode = "not_found"
	CodeConflict    ErrorCode = "conflict"
	CodeUnavailable ErrorCode = "unavailable"
	CodeInternal    ErrorCode = "internal"
)

type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewForbiddenError(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found"}
}

func NewConflictError(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NewUnavailableError(err error) *AppError {
	return &AppError{Code: CodeUnavailable, Message: "persistence layer unavailable", Err: err}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// CodeOf extracts the classification of any error; unclassified errors are
// internal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// wrapDBError translates persistence errors into the engine taxonomy.
// Timeouts and cancellations surface as retryable Unavailable; unique
// constraint clashes as Conflict.
func wrapDBError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NewNotFoundError(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return NewConflictError("%s already exists", resource)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewUnavailableError(err)
	default:
		return NewInternalError("database error on "+resource, err)
	}
}
