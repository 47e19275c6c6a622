package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/model"
)

func seedEvent(t *testing.T, s *Store, layout model.SeatLayout) int64 {
	t.Helper()
	ctx := context.Background()
	ev := model.Event{Name: "Gala", Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Active: true}
	require.NoError(t, s.CreateEvent(ctx, &ev))
	require.NoError(t, s.InsertSeats(ctx, layout.Seats(ev.ID)))
	return ev.ID
}

func TestCompareAndSetStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	id := seedEvent(t, s, model.SeatLayout{{Row: "A", Seats: 2}})

	ok, err := s.CompareAndSetStatus(ctx, id, "A1", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSetStatus(ctx, id, "A1", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)
	assert.False(t, ok, "second swap from available must miss")

	ok, err = s.CompareAndSetStatus(ctx, id, "Z9", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.CompareAndSetStatus(ctx, id, "A2", model.StatusAvailable, model.SeatStatus("reserved"))
	assert.ErrorIs(t, err, model.ErrValidation)

	seat, err := s.GetSeat(ctx, id, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, seat.Status)
}

func TestWithTxRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	id := seedEvent(t, s, model.SeatLayout{{Row: "A", Seats: 3}})
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		_, err := s.CompareAndSetStatus(ctx, id, "A1", model.StatusAvailable, model.StatusSold)
		require.NoError(t, err)
		_, err = s.SetAllStatus(ctx, id, model.StatusBlocked)
		require.NoError(t, err)
		_, err = s.DeleteSeats(ctx, id)
		require.NoError(t, err)
		require.NoError(t, s.DeleteEvent(ctx, id))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetEvent(ctx, id)
	require.NoError(t, err)
	counts, err := s.CountByStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{model.StatusAvailable: 3}, counts)
}

func TestWithTxRollsBackCreate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var created int64
	err := s.WithTx(ctx, func(ctx context.Context) error {
		ev := model.Event{Name: "Dry run"}
		require.NoError(t, s.CreateEvent(ctx, &ev))
		created = ev.ID
		return s.InsertSeats(ctx, []model.Seat{
			{ID: "A1", EventID: ev.ID, Row: "A", Number: 1, Status: model.StatusAvailable},
			{ID: "A1", EventID: ev.ID, Row: "A", Number: 1, Status: model.StatusAvailable},
		})
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = s.GetEvent(ctx, created)
	assert.ErrorIs(t, err, model.ErrNotFound)
	events, err := s.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	// The rolled back id is handed out again.
	ev := model.Event{Name: "Real"}
	require.NoError(t, s.CreateEvent(ctx, &ev))
	assert.Equal(t, created, ev.ID)
}

func TestEventsAreIsolated(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	layout := model.SeatLayout{{Row: "A", Seats: 1}}
	first := seedEvent(t, s, layout)
	second := seedEvent(t, s, layout)

	ok, err := s.CompareAndSetStatus(ctx, first, "A1", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)
	require.True(t, ok)

	seat, err := s.GetSeat(ctx, second, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, seat.Status)

	n, err := s.DeleteSeats(ctx, first)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = s.GetSeat(ctx, second, "A1")
	assert.NoError(t, err)
}

func TestListAndSummarize(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	id := seedEvent(t, s, model.SeatLayout{{Row: "B", Seats: 2}, {Row: "A", Seats: 3}})

	_, err := s.CompareAndSetStatus(ctx, id, "A2", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)
	_, err = s.CompareAndSetStatus(ctx, id, "B1", model.StatusAvailable, model.StatusValidated)
	require.NoError(t, err)

	seats, err := s.ListSeats(ctx, id)
	require.NoError(t, err)
	got := make([]string, 0, len(seats))
	for _, seat := range seats {
		got = append(got, seat.ID)
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2"}, got)

	rows, err := s.SummarizeRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []model.RowSummary{
		{Row: "A", Total: 3, Sold: 1, Validated: 0},
		{Row: "B", Total: 2, Sold: 0, Validated: 1},
	}, rows)
}
