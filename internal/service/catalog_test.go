package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/model"
)

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev, err := f.catalog.CreateEvent(ctx, CreateEventInput{Name: "  Premiere ", Date: "2025-10-31"})
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	assert.Equal(t, "Premiere", ev.Name)
	assert.Equal(t, "2025-10-31", ev.DateString())
	assert.True(t, ev.Active)

	seats, err := f.engine.ListSeats(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, seats, 324)
}

func TestCreateEvent_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]CreateEventInput{
		"missing name":  {Date: "2025-01-01"},
		"missing date":  {Name: "x"},
		"bad date":      {Name: "x", Date: "2025-13-01"},
		"bad layout":    {Name: "x", Date: "2025-01-01", Layout: model.SeatLayout{{Row: "A", Seats: -1}}},
		"empty layout":  {Name: "x", Date: "2025-01-01", Layout: model.SeatLayout{}},
		"repeated rows": {Name: "x", Date: "2025-01-01", Layout: model.SeatLayout{{Row: "A", Seats: 1}, {Row: "A", Seats: 1}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.catalog.CreateEvent(ctx, in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}

	events, err := f.catalog.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events, "rejected input must not create anything")
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createEvent(t, model.SeatLayout{{Row: "A", Seats: 1}})

	name := "Encore"
	inactive := false
	ev, err := f.catalog.UpdateEvent(ctx, id, model.EventPatch{Name: &name, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Encore", ev.Name)
	assert.Equal(t, "2025-06-01", ev.DateString(), "date is left unchanged")
	assert.False(t, ev.Active)

	got, err := f.catalog.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	_, err = f.catalog.UpdateEvent(ctx, id+1, model.EventPatch{Name: &name})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.catalog.UpdateEvent(ctx, id, model.EventPatch{})
	assert.ErrorIs(t, err, model.ErrValidation)

	blank := " "
	_, err = f.catalog.UpdateEvent(ctx, id, model.EventPatch{Name: &blank})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	layout := model.SeatLayout{{Row: "A", Seats: 3}}
	doomed := f.createEvent(t, layout)
	kept := f.createEvent(t, layout)

	require.NoError(t, f.catalog.DeleteEvent(ctx, doomed))

	_, err := f.catalog.GetEvent(ctx, doomed)
	assert.ErrorIs(t, err, model.ErrNotFound)
	seats, err := f.store.ListSeats(ctx, doomed)
	require.NoError(t, err)
	assert.Empty(t, seats, "no orphaned seats")

	seats, err = f.engine.ListSeats(ctx, kept)
	require.NoError(t, err)
	assert.Len(t, seats, 3)

	assert.ErrorIs(t, f.catalog.DeleteEvent(ctx, doomed), model.ErrNotFound)
}

func TestResetEvent(t *testing.T) {
	n := &mockNotifier{}
	n.On("NotifySeatsChanged", mock.Anything, mock.Anything).Return(nil)
	f := newFixture(t, WithNotifier(n))
	ctx := context.Background()
	id := f.createEvent(t, nil)

	_, err := f.engine.PurchaseSeats(ctx, id, []string{"A1", "A2", "B7"})
	require.NoError(t, err)
	_, err = f.engine.ValidateSeat(ctx, id, "A2")
	require.NoError(t, err)
	_, err = f.engine.ToggleBlock(ctx, id, "U13")
	require.NoError(t, err)

	total, err := f.catalog.ResetEvent(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 324, total)

	counts, err := f.reports.StatusCounts(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{model.StatusAvailable: 324}, counts)

	_, err = f.catalog.ResetEvent(ctx, id+1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
