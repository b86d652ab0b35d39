// Package apperr defines the error taxonomy shared by the services and the
// HTTP layer. Callers should match with errors.Is / errors.As.
package apperr

import "errors"

var (
	// Store-level errors.
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already exists")
	ErrUsernameTaken = errors.New("username already exists")

	// Ownership violation on a book.
	ErrForbidden = errors.New("forbidden")

	// Login failures.
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Auth gate failure. Every sub-step collapses into this one.
	ErrUnauthorized = errors.New("unauthorized")

	// Token verification failures.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
)

// ValidationError reports missing or malformed input. Its message is safe to
// return to the client.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// Validation returns a *ValidationError with the given client-facing message.
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// Validationf wraps a sentinel so errors.Is keeps working while the message
// stays client-facing.
func Validationf(err error, msg string) error {
	return &ValidationError{Message: msg, Err: err}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
