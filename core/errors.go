package core

import "github.com/pkg/errors"

// MsgMissingFields is returned when a request misses one or more required fields.
const MsgMissingFields = "Tous les champs obligatoires doivent être remplis"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports malformed, missing or out-of-range input.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthError reports a missing or invalid token, or bad credentials.
type AuthError struct {
	message string
}

func NewAuthError(msg string) error {
	return &AuthError{message: msg}
}

func (err AuthError) Error() string { return err.message }

// AuthorizationError reports a valid identity lacking the role, ownership or scope an operation requires.
type AuthorizationError struct {
	message string
}

func NewAuthorizationError(msg string) error {
	return &AuthorizationError{message: msg}
}

func (err AuthorizationError) Error() string { return err.message }

// NotFoundError reports a referenced entity that does not exist or is not owned by the caller.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string { return err.message }

// ConflictError reports a duplicated unique field.
type ConflictError struct {
	message string
}

func NewConflictError(msg string) error {
	return &ConflictError{message: msg}
}

func (err ConflictError) Error() string { return err.message }

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsAuthError(err error) bool {
	_, ok := errors.Cause(err).(*AuthError)
	return ok
}

func IsAuthorizationError(err error) bool {
	_, ok := errors.Cause(err).(*AuthorizationError)
	return ok
}

func IsNotFoundError(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflictError(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
