package shared

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable category of a domain rejection
type ErrorKind string

const (
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindPreconditionFailed ErrorKind = "PRECONDITION_FAILED"
	KindForbidden          ErrorKind = "FORBIDDEN"
	KindConflict           ErrorKind = "CONFLICT"
	KindValidationFailed   ErrorKind = "VALIDATION_FAILED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches another DomainError by kind and code, so sentinel errors
// compare equal to errors built from the same code with a different message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NotFound builds a NOT_FOUND error for the named entity
func NotFound(entity string) *DomainError {
	return NewDomainError(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", entity))
}

// PreconditionFailed builds a PRECONDITION_FAILED error
func PreconditionFailed(code, message string) *DomainError {
	return NewDomainError(KindPreconditionFailed, code, message)
}

// Forbidden builds a FORBIDDEN error
func Forbidden(code, message string) *DomainError {
	return NewDomainError(KindForbidden, code, message)
}

// Conflict builds a CONFLICT error
func Conflict(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// ValidationFailed builds a VALIDATION_FAILED error
func ValidationFailed(code, message string) *DomainError {
	return NewDomainError(KindValidationFailed, code, message)
}

// KindOf returns the kind of a domain error anywhere in err's chain, or "" for
// infrastructure errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrDuplicate         = NewDomainError(KindConflict, "DUPLICATE", "Resource already exists")
	ErrStaleState        = NewDomainError(KindConflict, "STALE_STATE", "Resource was modified by another operation")
	ErrInvalidInput      = NewDomainError(KindValidationFailed, "INVALID_INPUT", "Invalid input provided")
	ErrForbidden         = NewDomainError(KindForbidden, "FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidTransition = NewDomainError(KindPreconditionFailed, "INVALID_TRANSITION", "Operation not allowed in current state")
)
