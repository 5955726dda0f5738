package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidModel is returned when a test model violates its preconditions.
	ErrInvalidModel = errors.New("invalid test model")

	// ErrInvalidCombination is returned when a combination does not fit a model.
	ErrInvalidCombination = errors.New("invalid combination")

	// ErrInvalidState is returned when an operation is not allowed in the current state.
	ErrInvalidState = errors.New("operation not allowed in current state")
)
