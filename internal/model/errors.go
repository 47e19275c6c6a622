package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds of the error taxonomy.  Concrete error values carry the
// offending field or identifiers and match their kind with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrStorage           = errors.New("storage failure")
)

// ValidationError reports malformed input.  It is always returned before
// any mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a missing event or seat.  SeatID is empty when
// the event itself is unknown.
type NotFoundError struct {
	EventID int64
	SeatID  string
}

func (e *NotFoundError) Error() string {
	if e.SeatID == "" {
		return fmt.Sprintf("event %d not found", e.EventID)
	}
	return fmt.Sprintf("seat %s of event %d not found", e.SeatID, e.EventID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransitionError reports that Op does not apply to the seat's current
// status.  Current lets the caller reconcile its view of the seat.
type TransitionError struct {
	EventID int64
	SeatID  string
	Op      string
	Current SeatStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s seat %s of event %d: status is %s", e.Op, e.SeatID, e.EventID, e.Current)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// StorageError wraps a persistence failure.  The whole operation is safe
// to retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

// EventNotFound is shorthand for a NotFoundError about an event.
func EventNotFound(eventID int64) error {
	return &NotFoundError{EventID: eventID}
}

// SeatNotFound is shorthand for a NotFoundError about a seat.
func SeatNotFound(eventID int64, seatID string) error {
	return &NotFoundError{EventID: eventID, SeatID: seatID}
}
