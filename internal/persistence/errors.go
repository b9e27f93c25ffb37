package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert collides with an existing id.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a write breaks a schema constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrConflict is returned by admission when the candidate interval overlaps
	// a confirmed reservation for the same room.
	ErrConflict = errors.New("persistence: booking conflict")
	// ErrAlreadyCancelled is returned when cancelling a reservation whose
	// status is already cancelled.
	ErrAlreadyCancelled = errors.New("persistence: already cancelled")
)
