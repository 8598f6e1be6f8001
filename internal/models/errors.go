package models

import "errors"

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a record's current status does
	// not allow the requested move.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidCredentials covers unknown users, bad passwords and bad
	// tokens alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
