package services

import (
	"errors"
	"fmt"

	"retail-ops-api/internal/repositories"
)

// ErrorKind classifies service failures for transport-level status mapping
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindPermission ErrorKind = "permission"
	KindNotFound   ErrorKind = "not_found"
	KindInternal   ErrorKind = "internal"
)

// ServiceError carries a classified, user-presentable failure reason.
// Validation, conflict, permission and not-found errors never leave a
// partial mutation behind.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a user-correctable validation failure
func NewValidationError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError creates a conflict failure (concurrent modification,
// insufficient stock)
func NewConflictError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewPermissionError creates a permission failure
func NewPermissionError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a not-found failure
func NewNotFoundError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// WrapRepositoryError classifies a repository error into the service
// taxonomy, preserving the underlying error for logging.
func WrapRepositoryError(message string, err error) error {
	if err == nil {
		return nil
	}

	kind := KindInternal
	switch {
	case repositories.IsNotFound(err):
		kind = KindNotFound
	case repositories.IsConcurrency(err):
		kind = KindConflict
	case repositories.IsInsufficientStock(err):
		kind = KindConflict
	case repositories.IsDuplicate(err):
		kind = KindValidation
	case errors.Is(err, repositories.ErrValidation):
		kind = KindValidation
	}

	return &ServiceError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or KindInternal when err is not
// a service error.
func KindOf(err error) ErrorKind {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict reports whether err is a conflict failure
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsPermission reports whether err is a permission failure
func IsPermission(err error) bool { return KindOf(err) == KindPermission }

// IsNotFound reports whether err is a not-found failure
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
