package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateCallsign is returned when creating a driver with a
	// callsign that is already taken.
	ErrDuplicateCallsign = errors.New("callsign already taken")
)
