package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, &ValidationError{Field: "name", Reason: "is required"}, ErrValidation)
	assert.ErrorIs(t, EventNotFound(1), ErrNotFound)
	assert.ErrorIs(t, SeatNotFound(1, "A1"), ErrNotFound)
	assert.ErrorIs(t, &TransitionError{EventID: 1, SeatID: "A1", Op: "validate", Current: StatusAvailable}, ErrInvalidTransition)

	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("purchase: %w", &StorageError{Op: "get seat", Err: cause})
	assert.ErrorIs(t, wrapped, ErrStorage)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "event 4 not found", EventNotFound(4).Error())
	assert.Equal(t, "seat B2 of event 4 not found", SeatNotFound(4, "B2").Error())
	assert.Equal(t, "cannot validate seat A1 of event 1: status is available",
		(&TransitionError{EventID: 1, SeatID: "A1", Op: "validate", Current: StatusAvailable}).Error())
}

func TestEventPatch(t *testing.T) {
	assert.True(t, EventPatch{}.Empty())

	name := "  Matinee "
	active := false
	d, err := ParseDate("2025-03-04")
	assert.NoError(t, err)

	e := EventPatch{Name: &name, Date: &d, Active: &active}.Apply(Event{ID: 1, Name: "Old", Active: true})
	assert.Equal(t, "Matinee", e.Name)
	assert.Equal(t, "2025-03-04", e.DateString())
	assert.False(t, e.Active)

	_, err = ParseDate("04/03/2025")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseDate("")
	assert.ErrorIs(t, err, ErrValidation)
}
