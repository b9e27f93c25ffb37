package application

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrUnauthenticated is returned when an operation requiring a signed-in
	// identity is invoked without one.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrAlreadyCancelled is returned when cancelling a reservation that is
	// already cancelled. Distinct from ErrNotFound so callers can tell a
	// stale button press from a deleted record.
	ErrAlreadyCancelled = errors.New("application: reservation already cancelled")
	// ErrAlreadyExists is returned when creating a resource with an
	// identifier that is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError rejects an admission whose interval overlaps a confirmed
// reservation. Message is user-facing so booking forms can show it directly.
type ConflictError struct {
	Message string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || c.Message == "" {
		return "booking conflict"
	}
	return c.Message
}
