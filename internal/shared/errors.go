package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthorized indicates the actor lacks the required capability or ownership.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrInvalidState indicates a transition attempted on a record outside the pending state.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrConflict indicates a uniqueness invariant was violated.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
