package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors of the auth core. Callers match them with errors.Is;
// the HTTP layer maps each one to a status code.
var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned for an unknown email and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated is what the gateway returns for any token
	// problem. The concrete cause is wrapped alongside it.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the principal is authenticated but not allowed.
	ErrForbidden = errors.New("forbidden")

	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	// Configuration faults; fatal at startup.
	ErrHashing = errors.New("password hashing failed")
	ErrSigning = errors.New("token signing failed")

	// ErrDependency matches every *DependencyError.
	ErrDependency = errors.New("dependency unavailable")
)

// ValidationError describes malformed credentials.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DependencyError wraps an infrastructure failure (store timeout, lost
// connection) so it is never confused with a credentials problem.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) Is(target error) bool { return target == ErrDependency }
