// Package common defines shared constants and sentinel errors used across
// the server, its HTTP layer and the admin tooling. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// ErrorIntegrityMismatch is returned when a client claims a file id that
	// disagrees with the server-side view assignment for a matching view index.
	ErrorIntegrityMismatch = errors.New("integrity mismatch")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
