package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidTaskStatus is returned when a task status is not one of
	// the closed set of states.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidMessageRole is returned when a message role is not valid.
	ErrInvalidMessageRole = errors.New("invalid message role")

	// ErrTerminalStatus is returned when a transition out of a terminal
	// task status is attempted.
	ErrTerminalStatus = errors.New("task status is terminal")
)
