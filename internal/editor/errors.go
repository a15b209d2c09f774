package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrSaving is returned by every mutating operation while another one is persisting.
	ErrSaving       = errors.New("a save is in progress")
	ErrNotConfirmed = errors.New("delete not confirmed")
	ErrNotFound     = errors.New("not found")
)

// ValidationError rejects form input before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
