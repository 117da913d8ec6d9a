package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrOverlap            = errors.New("time range overlaps an existing slot")
	ErrHasReservation     = errors.New("slot has an active reservation")
	ErrSlotUnavailable    = errors.New("slot is not available")
	ErrPastDate           = errors.New("date is in the past")
	ErrAlreadyCancelled   = errors.New("reservation is already cancelled")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError некорректный ввод: плохая дата, пустое поле и т.п.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
