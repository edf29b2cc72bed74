package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrInvalidInput - invalid input (show validation error to the user)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - resource not found (course, session, tool)
	ErrNotFound = errors.New("not found")

	// ErrConflict - conflict (workspace lock held, course already ingested)
	ErrConflict = errors.New("conflict")

	// ErrTransient - transient error (show retry hint)
	ErrTransient = errors.New("transient error")

	// ErrInvalidModelOutput - model returned content the orchestrator cannot use
	ErrInvalidModelOutput = errors.New("invalid model output")

	// ErrInternal - internal error (generic message + trace id)
	ErrInternal = errors.New("internal error")
)

// Tool boundary failures. These are expected outcomes reported back to the model
// as error-flagged tool results, never raised to the caller of Generate.
var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidToolInput = errors.New("invalid tool input")
)

// Completion service transport failures. Always raised to the caller, never retried.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrAPI            = errors.New("API error")
)
