package service

import (
	"errors"
	"fmt"

	"github.com/medaminemghirbi/SallaPro/internal/models"
)

var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOverlap             = errors.New("venue already reserved for this period")
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("record not found")
	ErrConcurrencyConflict = errors.New("concurrent update conflict, please retry")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move %s from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// OverlapError lists the active reservations that block the requested window.
// Conflicts may be empty when the overlap was reported by the database.
type OverlapError struct {
	VenueID   uint
	Conflicts []models.VenueReservation
}

func (e *OverlapError) Error() string {
	if len(e.Conflicts) == 0 {
		return fmt.Sprintf("venue %d is already reserved for this period", e.VenueID)
	}
	return fmt.Sprintf("venue %d is already reserved for this period (%d conflicting reservation(s))", e.VenueID, len(e.Conflicts))
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
