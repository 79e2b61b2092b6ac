package model

import (
	"fmt"
)

// NotFoundError is an error signaling that something was not found in the
// store, e.g. a credential request with an unknown id
type NotFoundError string

// Error implements the error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// NotFoundErrorFmt returns a NotFoundError from the passed format string and parameters
func NotFoundErrorFmt(format string, params ...any) NotFoundError {
	return NotFoundError(fmt.Sprintf(format, params...))
}

// AlreadyExistsError is an error signaling that an entry with the same
// unique key already exists, e.g. a user with the same email
type AlreadyExistsError string

// Error implements the error interface
func (e AlreadyExistsError) Error() string {
	return string(e)
}

// AlreadyExistsErrorFmt returns an AlreadyExistsError from the passed format string and parameters
func AlreadyExistsErrorFmt(format string, params ...any) AlreadyExistsError {
	return AlreadyExistsError(fmt.Sprintf(format, params...))
}

// NotPendingError is an error signaling that a credential request was already
// approved or rejected and cannot transition again
type NotPendingError string

// Error implements the error interface
func (e NotPendingError) Error() string {
	return string(e)
}

// NotPendingErrorFmt returns a NotPendingError from the passed format string and parameters
func NotPendingErrorFmt(format string, params ...any) NotPendingError {
	return NotPendingError(fmt.Sprintf(format, params...))
}

// PermissionError is an error signaling that the acting user is not allowed
// to perform an operation
type PermissionError string

// Error implements the error interface
func (e PermissionError) Error() string {
	return string(e)
}

// PermissionErrorFmt returns a PermissionError from the passed format string and parameters
func PermissionErrorFmt(format string, params ...any) PermissionError {
	return PermissionError(fmt.Sprintf(format, params...))
}

// ValidationError is an error signaling malformed input that is not covered
// by the validate package, e.g. non-scalar metadata
type ValidationError string

// Error implements the error interface
func (e ValidationError) Error() string {
	return string(e)
}

// ValidationErrorFmt returns a ValidationError from the passed format string and parameters
func ValidationErrorFmt(format string, params ...any) ValidationError {
	return ValidationError(fmt.Sprintf(format, params...))
}

// CorruptError describes a stored value that could not be decoded. Stores log
// it and continue with an empty value; it is never returned to callers of the
// identity store or the ledger.
type CorruptError struct {
	Scope string
	Key   string
	Err   error
}

// Error implements the error interface
func (e CorruptError) Error() string {
	return fmt.Sprintf("corrupt value at %s/%s: %s", e.Scope, e.Key, e.Err)
}

// Unwrap returns the decoding error
func (e CorruptError) Unwrap() error {
	return e.Err
}
