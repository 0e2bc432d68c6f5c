package models

import (
	"errors"
	"fmt"
)

var (
	// ErrTripNotFound is returned when no trip has the given id
	ErrTripNotFound = errors.New("trip not found")

	// ErrPointNotFound is returned when the rider has no point on the trip
	ErrPointNotFound = errors.New("point not found")

	ErrProfileNotFound = errors.New("profile not found")

	// ErrForbidden is returned when the session does not own the trip
	ErrForbidden = errors.New("forbidden")

	ErrInvalidTransition = errors.New("invalid status transition")

	ErrNoSeatsAvailable = errors.New("no seats available")

	// ErrConflict is returned when a concurrent write kept winning
	ErrConflict = errors.New("concurrent update conflict")
)

// ValidationError is a client input problem detected before any store call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func transitionError(entity, from, to string) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, entity, from, to)
}
