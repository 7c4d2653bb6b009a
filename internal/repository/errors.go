// Package repository defines error types that are reused across
// repositories. These sentinel values allow higher layers such as the
// auth core and the handlers to distinguish between failure scenarios
// without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when no row matches the lookup key.
// Handlers should translate this into an HTTP 404 response, except on
// login where it must look exactly like a wrong password.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user with the same email already
// exists. Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
