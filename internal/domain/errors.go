package domain

import "errors"

var (
	// ErrNotFound is returned when a schedule or booking does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation wraps input that breaks a field rule (missing email, negative price).
	ErrValidation = errors.New("validation error")

	ErrInvalidGuestComposition = errors.New("invalid guest composition")
	ErrCapacityExceeded        = errors.New("capacity exceeded")
	ErrScheduleDeparted        = errors.New("schedule already departed")

	// ErrDuplicateSubmission means the same idempotency key is being submitted concurrently.
	ErrDuplicateSubmission = errors.New("duplicate submission in progress")

	// ErrStaleSchedule is returned when an edit was based on an outdated version.
	ErrStaleSchedule = errors.New("schedule was modified concurrently")

	ErrInvalidTransition = errors.New("invalid status transition")
)
