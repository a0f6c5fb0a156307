package models

import "errors"

// Stable error kinds surfaced by the task workflow. Handlers translate these
// to HTTP status codes with errors.Is; everything else is a server error.
var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyInTargetState   = errors.New("already in target state")
	ErrValidation             = errors.New("validation failed")

	// ErrConflict signals a version mismatch on a read-modify-write cycle.
	// The orchestrator retries; it never reaches callers directly.
	ErrConflict = errors.New("write conflict")
)
