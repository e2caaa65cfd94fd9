package application

import (
	"errors"

	"github.com/example/stacklyhub/internal/policy"
)

var (
	// ErrInvalidCredentials is returned when no roster entry matches the supplied email and password.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrNotAuthenticated is returned when an operation needs a current principal and none is signed in.
	ErrNotAuthenticated = errors.New("application: not authenticated")
	// ErrNotFound is returned when the requested user, session or notification does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a user with the same email is already on the roster.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidTransition is returned when a session status change is not allowed from its current status.
	ErrInvalidTransition = errors.New("application: invalid status transition")
	// ErrClassLinkUnavailable is returned when a trainee cannot join a session.
	ErrClassLinkUnavailable = errors.New("application: class link unavailable")

	// ErrPermissionDenied is returned when the acting principal's role does not allow the action.
	ErrPermissionDenied = policy.ErrPermissionDenied
	// ErrPasswordChangeRequired is returned while the acting principal still holds a temporary password.
	ErrPasswordChangeRequired = policy.ErrPasswordChangeRequired
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message for a field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// orNil converts an empty validation error into a nil error so callers can return it directly.
func (v *ValidationError) orNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}
