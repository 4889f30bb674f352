package domain

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a record violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned when a login attempt fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized is returned when a request lacks a valid token.
	ErrUnauthorized = errors.New("unauthorized")
)
