// Package common defines sentinel errors shared by repositories, services
// and handlers. Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
	ErrUnavailable  = errors.New("feature unavailable")

	// Webhook errors.
	ErrUnsupportedObject = errors.New("unsupported webhook object")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
)

// ErrConflict is returned when a unique constraint would be violated.
var ErrConflict = errors.New("already exists")
